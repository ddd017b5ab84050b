package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"todopro/internal/exitcode"
	"todopro/internal/service"
	"todopro/internal/viewmodel"
)

// lookupTask loads the task list into vm and resolves the reference in
// args. On failure it has already reported the error and returns the exit
// code to use.
func lookupTask(ctx context.Context, vm *viewmodel.Model, args []string, errOut io.Writer) (service.Task, int) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		if errors.Is(err, ErrTaskRefRequired) {
			fmt.Fprintln(errOut, "error: task reference required")
		} else {
			fmt.Fprintf(errOut, "error: %v\n", err)
		}
		return service.Task{}, exitcode.UserError
	}

	if err := vm.Load(ctx); err != nil {
		return service.Task{}, reportError(errOut, err)
	}

	task, err := ResolveTaskRef(vm.Tasks(), ref)
	if err != nil {
		return service.Task{}, reportError(errOut, err)
	}
	return task, exitcode.Success
}
