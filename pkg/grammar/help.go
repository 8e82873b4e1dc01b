package grammar

import (
	"strings"
)

// Help renders the usage of the command. Option, argument and child
// descriptions are reproduced verbatim. The text ends with exactly one blank
// line.
func (m *Model) Help() string {
	var sb strings.Builder
	sb.WriteString("Usage: ")
	sb.WriteString(m.Path())
	if len(m.options) > 0 {
		sb.WriteString(" [<options>]")
	}
	if m.IsGroup() {
		sb.WriteString(" <command>")
	}
	if a := m.argument; a != nil {
		sb.WriteString(" ")
		sb.WriteString(argumentUsage(a))
	}
	sb.WriteString("\n")
	if d := strings.TrimRight(m.description, "\n"); d != "" {
		sb.WriteString("\n")
		sb.WriteString(d)
		sb.WriteString("\n")
	}

	if len(m.options) > 0 {
		var rows [][2]string
		for _, o := range m.options {
			rows = append(rows, [2]string{optionUsage(o), o.Description})
		}
		writeSection(&sb, "Options:", rows)
	}
	if a := m.argument; a != nil && a.Description != "" {
		writeSection(&sb, "Arguments:", [][2]string{{"<" + valueName(a.ValueName) + ">", a.Description}})
	}
	if m.IsGroup() {
		var rows [][2]string
		for _, c := range m.children {
			rows = append(rows, [2]string{c.name, c.description})
		}
		writeSection(&sb, "Commands:", rows)
	}
	sb.WriteString("\n")
	return sb.String()
}

func argumentUsage(a *ArgumentSpec) string {
	s := "<" + valueName(a.ValueName) + ">"
	if a.Multiple {
		s += "..."
	}
	if !a.Required {
		s = "[" + s + "]"
	}
	return s
}

func valueName(s string) string {
	if s == "" {
		return "arg"
	}
	return s
}

func optionUsage(o *OptionSpec) string {
	var sb strings.Builder
	switch {
	case o.Short != 0 && o.Name != "":
		sb.WriteString("-" + string(o.Short) + ", --" + o.Name)
	case o.Short != 0:
		sb.WriteString("-" + string(o.Short))
	default:
		sb.WriteString("    --" + o.Name)
	}
	switch {
	case o.Multiplicity == GroupMap:
		sb.WriteString("<key>=<" + o.ValueName + ">")
	case o.HasValue:
		sb.WriteString("=<" + o.ValueName + ">")
	}
	return sb.String()
}

func writeSection(sb *strings.Builder, title string, rows [][2]string) {
	width := 0
	for _, row := range rows {
		width = max(width, len(row[0]))
	}
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	for _, row := range rows {
		line := "  " + row[0]
		if desc := strings.TrimRight(row[1], "\n"); desc != "" {
			line += strings.Repeat(" ", width-len(row[0])+2) + desc
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
}
