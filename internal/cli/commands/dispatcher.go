package commands

import (
	"TrackingCar/internal/cli/api"
	"TrackingCar/internal/config"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Коды завершения процесса.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// Dispatch выполняет команду из args и возвращает код завершения процесса.
// Флаги уже разобраны config.NewConfig, args — оставшиеся позиционные аргументы.
func Dispatch(ctx context.Context, cfg *config.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(Out, FormatGlobalUsage())
		return exitUsage
	}

	name := strings.ToLower(args[0])
	switch name {
	case "help", "-h", "--help":
		return help(args[1:])
	}

	c, ok := Get(name)
	if !ok {
		unknown(name)
		return exitUsage
	}

	err := c.Run(ctx, cfg, args[1:])
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, ErrUsage):
		fmt.Fprint(Out, FormatCommandUsage(c))
		return exitUsage
	}

	fmt.Fprintf(Out, "%s: %v\n", name, err)
	if hint := hintFor(err); hint != "" {
		fmt.Fprintln(Out, "Hint:", hint)
	}
	return exitError
}

func help(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(Out, FormatGlobalUsage())
		return exitOK
	}
	c, ok := Get(args[0])
	if !ok {
		unknown(args[0])
		return exitUsage
	}
	fmt.Fprint(Out, FormatCommandUsage(c))
	return exitOK
}

// unknown печатает ошибку и команды с тем же префиксом, если они есть.
func unknown(name string) {
	fmt.Fprintf(Out, "Unknown command: %s\n", name)
	var similar []string
	for _, c := range List() {
		if strings.HasPrefix(c.Name(), name) || strings.HasPrefix(name, c.Name()) {
			similar = append(similar, c.Name())
		}
	}
	if len(similar) > 0 {
		fmt.Fprintf(Out, "Did you mean: %s?\n", strings.Join(similar, ", "))
	}
	fmt.Fprintln(Out)
	fmt.Fprint(Out, FormatGlobalUsage())
}

func hintFor(err error) string {
	switch api.StatusOf(err) {
	case http.StatusUnauthorized:
		return "run login first"
	case http.StatusForbidden:
		return "your role does not allow this operation"
	case http.StatusConflict:
		return "a record with the same plate or name already exists, or it is still referenced"
	case http.StatusNotFound:
		return "check the id, removed records are not listed"
	}
	return ""
}
