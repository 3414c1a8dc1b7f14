package tacfmt

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// testSpec is one case from testdata/roundtrip.yaml: a textual program
// that should read back into the same instruction stream it prints.
type testSpec struct {
	Name  string `yaml:"name"`
	Input string `yaml:"input"`
}

type testFile struct {
	Tests []testSpec `yaml:"tests"`
}

func TestRoundtripYAML(t *testing.T) {
	data, err := os.ReadFile("testdata/roundtrip.yaml")
	if err != nil {
		t.Fatalf("failed to read roundtrip.yaml: %v", err)
	}

	var tf testFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		t.Fatalf("failed to parse roundtrip.yaml: %v", err)
	}

	for _, tc := range tf.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			prog, err := ReadProgram(strings.NewReader(tc.Input))
			if err != nil {
				t.Fatalf("ReadProgram: %v", err)
			}

			var buf bytes.Buffer
			NewWriter(&buf).WriteProgram(prog)

			if buf.String() != tc.Input {
				t.Errorf("roundtrip mismatch\n--- want ---\n%s--- got ---\n%s", tc.Input, buf.String())
			}
		})
	}
}
