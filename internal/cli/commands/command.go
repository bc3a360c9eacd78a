package commands

import (
	"TrackingCar/internal/cli/api"
	"TrackingCar/internal/cli/session"
	"TrackingCar/internal/config"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// ErrUsage is returned by a command when arguments are invalid and usage should be shown.
var ErrUsage = errors.New("usage")

// Command represents a CLI subcommand.
type Command interface {
	// Name returns the command name as typed by the user, e.g. "login".
	Name() string
	// Description is a short human-readable description shown in help.
	Description() string
	// Usage returns the exact usage string, e.g. "login <login> <password>".
	Usage() string
	// Run executes the command with provided args (without the command name).
	Run(ctx context.Context, cfg *config.Config, args []string) error
}

// Sessions — хранилище сессии CLI.
var Sessions session.Store = session.FSStore{}

func newClient(cfg *config.Config) *api.Client {
	return api.NewClient(cfg.ServerURL, Sessions)
}

// registry — зарегистрированные команды по имени.
var registry = map[string]Command{}

// Out — общий writer для вывода CLI. В тестах переназначается.
var Out io.Writer = os.Stdout

// RegisterCmd добавляет команду в реестр. Вызывается из init() файла команды.
func RegisterCmd(cmd Command) {
	registry[cmd.Name()] = cmd
}

// Get возвращает команду по имени без учёта регистра.
func Get(name string) (Command, bool) {
	c, ok := registry[strings.ToLower(name)]
	return c, ok
}

// List возвращает команды, отсортированные по имени.
func List() []Command {
	list := make([]Command, 0, len(registry))
	for _, c := range registry {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// Разделы справки. Команда попадает в первый раздел с подходящим префиксом имени.
var sections = []struct {
	title    string
	prefixes []string
}{
	{"Session", []string{"login", "register", "logout", "status"}},
	{"Cars", []string{"car"}},
	{"Locations", []string{"location"}},
}

func sectionOf(name string) string {
	for _, s := range sections {
		for _, p := range s.prefixes {
			if strings.HasPrefix(name, p) {
				return s.title
			}
		}
	}
	return "Other"
}

// FormatGlobalUsage строит общую справку, сгруппированную по разделам.
func FormatGlobalUsage() string {
	var b strings.Builder
	b.WriteString("TrackingCar CLI: fleet registry client\n\n")
	b.WriteString("Usage:\n  tccli [-base-url <host:port>] [-https] <command> [args]\n  tccli help <command>\n")

	grouped := map[string][]Command{}
	for _, c := range List() {
		title := sectionOf(c.Name())
		grouped[title] = append(grouped[title], c)
	}
	titles := make([]string, 0, len(sections)+1)
	for _, s := range sections {
		titles = append(titles, s.title)
	}
	titles = append(titles, "Other")
	for _, title := range titles {
		cmds := grouped[title]
		if len(cmds) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", title)
		for _, c := range cmds {
			fmt.Fprintf(&b, "  %-44s %s\n", c.Usage(), c.Description())
		}
	}
	return b.String()
}

// FormatCommandUsage — справка по одной команде.
func FormatCommandUsage(c Command) string {
	return fmt.Sprintf("Usage: %s\n  %s\n", c.Usage(), c.Description())
}
