package commands

import (
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dotcommander/relay/internal/output"
)

// NewSchemaCmd creates the schema command. root is used to collect command schemas.
func NewSchemaCmd(root *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect command schemas for agent planning",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newSchemaCommandsCmd(root))
	return cmd
}

func newSchemaCommandsCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "Show command argument schemas with mutation hints",
		RunE: func(cmd *cobra.Command, args []string) error {
			type resp struct {
				Commands []commandArgSchema `json:"commands"`
			}
			schemas := make([]commandArgSchema, 0)
			collectCommandSchemas(root, &schemas)
			sort.Slice(schemas, func(i, j int) bool { return schemas[i].Command < schemas[j].Command })
			return output.PrintSuccess(resp{Commands: schemas})
		},
	}
}

type commandArgSchema struct {
	Command     string                 `json:"command"`
	Description string                 `json:"description,omitempty"`
	Mutates     bool                   `json:"mutates,omitempty"`
	ArgsSchema  map[string]interface{} `json:"args_schema"`
}

func collectCommandSchemas(cmd *cobra.Command, out *[]commandArgSchema) {
	if cmd.Name() != "" && cmd.Name() != "relay" && cmd.Name() != "schema" && !cmd.Hidden {
		*out = append(*out, buildCommandSchema(cmd))
	}

	for _, child := range cmd.Commands() {
		collectCommandSchemas(child, out)
	}
}

func buildCommandSchema(cmd *cobra.Command) commandArgSchema {
	properties := map[string]interface{}{}
	required := make([]string, 0)
	seen := map[string]bool{}

	addFlag := func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		if seen[f.Name] {
			return
		}
		seen[f.Name] = true

		flagSchema := map[string]interface{}{
			"type":        normalizeFlagType(f.Value.Type()),
			"description": f.Usage,
		}

		if f.DefValue != "" {
			flagSchema["default"] = typedFlagDefault(f.Value.Type(), f.DefValue)
		}

		if enumValues := parseEnumValues(f.Usage); len(enumValues) > 0 {
			flagSchema["enum"] = enumValues
		}

		properties[f.Name] = flagSchema

		if isRequiredFlag(f) {
			required = append(required, f.Name)
		}
	}

	cmd.InheritedFlags().VisitAll(addFlag)
	cmd.NonInheritedFlags().VisitAll(addFlag)

	argsSchema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		sort.Strings(required)
		argsSchema["required"] = required
	}

	return commandArgSchema{
		Command:     cmd.CommandPath(),
		Description: cmd.Short,
		Mutates:     cmd.Annotations["mutates"] == "true",
		ArgsSchema:  argsSchema,
	}
}

func normalizeFlagType(flagType string) string {
	switch flagType {
	case "int", "int64", "int32", "uint", "uint64", "uint32":
		return "integer"
	case "bool":
		return "boolean"
	case "stringSlice", "stringArray":
		return "array"
	default:
		return "string"
	}
}

func typedFlagDefault(flagType, raw string) interface{} {
	switch flagType {
	case "bool":
		v, err := strconv.ParseBool(raw)
		if err == nil {
			return v
		}
	case "int", "int64", "int32", "uint", "uint64", "uint32":
		v, err := strconv.Atoi(raw)
		if err == nil {
			return v
		}
	}
	return raw
}

func isRequiredFlag(f *pflag.Flag) bool {
	if f.Annotations != nil {
		if vals, ok := f.Annotations[cobra.BashCompOneRequiredFlag]; ok && len(vals) > 0 && vals[0] == "true" {
			return true
		}
	}

	usage := strings.ToLower(strings.TrimSpace(f.Usage))
	return strings.Contains(usage, "(required)")
}

func parseEnumValues(usage string) []string {
	usage = strings.TrimSpace(usage)
	if usage == "" {
		return nil
	}

	if idx := strings.Index(usage, ":"); idx >= 0 {
		cand := strings.TrimSpace(usage[idx+1:])
		if strings.Contains(cand, "|") {
			parts := strings.Split(cand, "|")
			return normalizeEnumParts(parts)
		}
	}

	return nil
}

func normalizeEnumParts(parts []string) []string {
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.Trim(p, "[]"))
		if p == "" {
			continue
		}
		if idx := strings.Index(p, " "); idx >= 0 {
			p = p[:idx]
		}
		values = append(values, p)
	}
	if len(values) < 2 {
		return nil
	}
	return values
}
