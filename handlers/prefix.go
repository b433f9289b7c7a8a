package handlers

import (
	"errors"
	"strconv"
	"strings"

	"wavebot/controller"
)

var errNotACommand = errors.New("not a command")

// UsageError is returned for a known command with bad arguments.
type UsageError struct {
	Usage string
}

func (e *UsageError) Error() string {
	return "usage: " + e.Usage
}

var prefixAliases = map[string]string{
	"play":           "play",
	"p":              "play",
	"skip":           "skip",
	"toggle":         "toggle",
	"pause":          "toggle",
	"resume":         "toggle",
	"volume":         "volume",
	"vol":            "volume",
	"filter":         "filter",
	"nightcore":      "nightcore",
	"defaultfilters": "defaultfilters",
	"disconnect":     "disconnect",
	"dc":             "disconnect",
	"np":             "np",
	"queue":          "queue",
	"q":              "queue",
	"history":        "history",
	"sync":           "sync",
}

// ParsePrefixCommand parses a legacy "?name args" message. Messages that do
// not start with prefix or name an unknown command return errNotACommand.
func ParsePrefixCommand(prefix, content string, caller controller.Caller) (Command, error) {
	content = strings.TrimSpace(content)
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return Command{}, errNotACommand
	}

	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return Command{}, errNotACommand
	}
	name, ok := prefixAliases[strings.ToLower(fields[0])]
	if !ok {
		return Command{}, errNotACommand
	}
	args := fields[1:]

	cmd := Command{Name: name, Caller: caller, Legacy: true}
	switch name {
	case "play":
		if len(args) == 0 {
			return Command{}, &UsageError{Usage: prefix + "play <song name or link>"}
		}
		cmd.Query = strings.Join(args, " ")
	case "skip":
		cmd.Force = true
	case "volume":
		if len(args) != 1 {
			return Command{}, &UsageError{Usage: prefix + "volume <number>"}
		}
		volume, err := strconv.Atoi(args[0])
		if err != nil {
			return Command{}, &UsageError{Usage: prefix + "volume <number>"}
		}
		cmd.Volume = volume
	case "filter":
		filters, err := parseFilterArgs(args)
		if err != nil {
			return Command{}, &UsageError{Usage: prefix + "filter <pitch> <speed> <rate>"}
		}
		cmd.Filters = filters
	}
	return cmd, nil
}

// parseFilterArgs reads up to three positional values; missing ones stay at 1.
func parseFilterArgs(args []string) (controller.FilterState, error) {
	filters := controller.DefaultFilters
	if len(args) > 3 {
		return filters, errors.New("too many filter values")
	}
	targets := []*float64{&filters.Pitch, &filters.Speed, &filters.Rate}
	for i, arg := range args {
		value, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return filters, err
		}
		*targets[i] = value
	}
	return filters, nil
}
