package restapi

import (
	"encoding/json"
	"time"

	"todopro/internal/service"
)

type taskJSON struct {
	ID        string     `json:"_id"`
	AltID     string     `json:"id,omitempty"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	Priority  string     `json:"priority"`
	DueDate   *time.Time `json:"dueDate"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (t taskJSON) toTask() service.Task {
	task := service.Task{
		ID:        t.ID,
		Text:      t.Text,
		Completed: t.Completed,
		Priority:  service.Priority(t.Priority),
		CreatedAt: t.CreatedAt.Local(),
		UpdatedAt: t.UpdatedAt.Local(),
	}
	if task.ID == "" {
		task.ID = t.AltID
	}
	if t.DueDate != nil {
		d := t.DueDate.Local()
		task.DueDate = &d
	}
	return task
}

type taskInputJSON struct {
	Text     string     `json:"text"`
	Priority string     `json:"priority"`
	DueDate  *time.Time `json:"dueDate"`
}

func newTaskInputJSON(in service.TaskInput) taskInputJSON {
	j := taskInputJSON{Text: in.Text, Priority: string(in.Priority)}
	if in.DueDate != nil {
		d := in.DueDate.UTC()
		j.DueDate = &d
	}
	return j
}

type userJSON struct {
	ID    string `json:"_id"`
	AltID string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u userJSON) toUser() service.User {
	id := u.ID
	if id == "" {
		id = u.AltID
	}
	return service.User{ID: id, Name: u.Name, Email: u.Email}
}

type credentialsJSON struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponseJSON struct {
	Token string    `json:"token"`
	User  *userJSON `json:"user"`
}

// errorBodyJSON is the error payload of a non-2xx response. Field errors
// come from two validators that disagree on key names.
type errorBodyJSON struct {
	Message string `json:"message"`
	Errors  []struct {
		Message string `json:"message"`
		Msg     string `json:"msg"`
		Field   string `json:"field"`
		Path    string `json:"path"`
	} `json:"errors"`
}

func parseErrorBody(body string) (string, []service.FieldError) {
	var eb errorBodyJSON
	if body == "" || json.Unmarshal([]byte(body), &eb) != nil {
		return "", nil
	}
	var fields []service.FieldError
	for _, e := range eb.Errors {
		fe := service.FieldError{Field: e.Field, Message: e.Message}
		if fe.Field == "" {
			fe.Field = e.Path
		}
		if fe.Message == "" {
			fe.Message = e.Msg
		}
		fields = append(fields, fe)
	}
	return eb.Message, fields
}
