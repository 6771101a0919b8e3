package action

import "strings"

// Kind discriminates the parsed command variants.
type Kind int

const (
	// Unknown segments are dropped during parsing and never reach the
	// interpreter.
	Unknown Kind = iota
	Look
	Apps
	Search
	Save
	Exec
	Type
	Press
	Wait
	Invalid
)

// Command is one parsed directive from the action model's answer.
type Command struct {
	Kind Kind

	// Arg carries the single-argument payload: search query, app name,
	// key name, wait duration, or the reason a segment is Invalid.
	Arg string

	// Type and Save use the extra fields.
	Target   string // TYPE focus target, empty for the foreground window
	Filename string // SAVE destination, relative to the output directory
	Content  string // SAVE file body / TYPE text
}

// Trigger markers. PRESS: and WAIT: are dispatchable inside a triggered
// chain but do not start the interpretation phase on their own.
var markers = []string{"EXEC:", "TYPE:", "SEARCH:", "APPS", "LOOK", "SAVE:"}

// ContainsCommand reports whether a model answer carries any directive
// marker and should go through the interpretation phase at all.
func ContainsCommand(s string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// Parse splits a directive line on " && " and classifies each segment.
// Empty segments and the explicit "NO" verdict are skipped. Segments
// with no recognized marker are dropped rather than failed: one garbled
// segment must not abort the rest of the chain.
func Parse(s string) []Command {
	var out []Command
	for _, seg := range strings.Split(s, " && ") {
		seg = strings.TrimSpace(seg)
		if seg == "" || seg == "NO" {
			continue
		}
		if cmd := classify(seg); cmd.Kind != Unknown {
			out = append(out, cmd)
		}
	}
	return out
}

func classify(seg string) Command {
	switch {
	case seg == "LOOK":
		return Command{Kind: Look}
	case seg == "APPS":
		return Command{Kind: Apps}
	case strings.HasPrefix(seg, "SEARCH:"):
		return Command{Kind: Search, Arg: strings.TrimSpace(seg[len("SEARCH:"):])}
	case strings.Contains(seg, "SAVE:"):
		return parseSave(seg)
	case strings.HasPrefix(seg, "EXEC:"):
		return Command{Kind: Exec, Arg: strings.TrimSpace(seg[len("EXEC:"):])}
	case strings.HasPrefix(seg, "TYPE:"):
		return parseType(seg[len("TYPE:"):])
	case strings.HasPrefix(seg, "PRESS:"):
		return Command{Kind: Press, Arg: strings.TrimSpace(seg[len("PRESS:"):])}
	case strings.HasPrefix(seg, "WAIT:"):
		return Command{Kind: Wait, Arg: strings.TrimSpace(seg[len("WAIT:"):])}
	default:
		return Command{Kind: Unknown}
	}
}

// parseSave tolerates the model prefixing the marker ("EXECUTE SAVE:…").
// The payload is "filename ||| content"; anything else is Invalid so the
// transcript can report the malformed directive instead of silently
// writing a broken file.
func parseSave(seg string) Command {
	payload := seg[strings.Index(seg, "SAVE:")+len("SAVE:"):]
	name, content, ok := strings.Cut(payload, "|||")
	if !ok {
		return Command{Kind: Invalid, Arg: strings.TrimSpace(payload)}
	}
	return Command{
		Kind:     Save,
		Filename: strings.TrimSpace(name),
		Content:  strings.TrimSpace(content),
	}
}

// parseType splits an optional focus target off the text at the first
// '@': "TYPE:hello@notepad" types "hello" into notepad.
func parseType(payload string) Command {
	text, target, ok := strings.Cut(payload, "@")
	if !ok {
		return Command{Kind: Type, Content: strings.TrimSpace(payload)}
	}
	return Command{
		Kind:    Type,
		Target:  strings.TrimSpace(target),
		Content: strings.TrimSpace(text),
	}
}
