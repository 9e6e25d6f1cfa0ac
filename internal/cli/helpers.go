package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/thoas/go-funk"
	"sigs.k8s.io/yaml"
)

const (
	jsonFormat = "json"
	yamlFormat = "yaml"
)

var (
	legalOutputTypes = []string{jsonFormat, yamlFormat}
)

func validateOutputFormat(output string) error {
	if len(output) > 0 && !funk.Contains(legalOutputTypes, output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
	}
	return nil
}

func printResource(resource any, output string) error {
	switch output {
	case jsonFormat:
		marshalled, err := json.Marshal(resource)
		if err != nil {
			return fmt.Errorf("marshalling resource: %w", err)
		}
		fmt.Printf("%s\n", string(marshalled))
	default:
		marshalled, err := yaml.Marshal(resource)
		if err != nil {
			return fmt.Errorf("marshalling resource: %w", err)
		}
		fmt.Printf("%s\n", string(marshalled))
	}
	return nil
}

func formatAED(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
