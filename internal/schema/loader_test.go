package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSchema = `
models: {
	Developer: {
		labels: ["Developer", "Person"]
		properties: {
			name: "string"
			age:  "int"
		}
		relationships: {
			coffee: {
				model:     "Consumed"
				target:    "Coffee"
				direction: "OUTGOING"
			}
			team: {
				model:     "Employs"
				target:    "Company"
				direction: "INCOMING"
			}
		}
	}
	Coffee: {
		properties: {
			flavor: "string"
		}
	}
	Company: {}
}
relationships: {
	Consumed: {
		type: "CONSUMED"
		properties: {liters: "float"}
	}
	Employs: {}
}
`

func TestLoadBytes_RegistersModels(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, LoadBytes(reg, []byte(sampleSchema)))

	dev, ok := reg.Node("Developer")
	require.True(t, ok)
	assert.Equal(t, []string{"Developer", "Person"}, dev.Labels)
	assert.Equal(t, KindString, dev.Properties["name"])
	assert.Equal(t, KindInt, dev.Properties["age"])

	require.Len(t, dev.Relationships, 2)
	assert.Equal(t, RelationshipDescriptor{
		PropertyName:      "coffee",
		Direction:         DirectionOutgoing,
		RelationshipModel: "Consumed",
		TargetModel:       "Coffee",
	}, dev.Relationships[0])
	assert.Equal(t, DirectionIncoming, dev.Relationships[1].Direction)

	coffee, ok := reg.Node("Coffee")
	require.True(t, ok)
	assert.Equal(t, []string{"Coffee"}, coffee.Labels)

	consumed, ok := reg.Relationship("Consumed")
	require.True(t, ok)
	assert.Equal(t, "CONSUMED", consumed.Type)
	assert.Equal(t, KindFloat, consumed.Properties["liters"])

	// Type falls back to the model name when not declared.
	employs, ok := reg.Relationship("Employs")
	require.True(t, ok)
	assert.Equal(t, "Employs", employs.Type)
}

func TestLoadBytes_DirectionDefaultsToOutgoing(t *testing.T) {
	reg := NewRegistry()

	src := `
models: {
	Developer: {
		relationships: {
			coffee: {
				model:  "Consumed"
				target: "Coffee"
			}
		}
	}
}
relationships: {Consumed: {}}
`
	require.NoError(t, LoadBytes(reg, []byte(src)))

	dev, _ := reg.Node("Developer")
	require.Len(t, dev.Relationships, 1)
	assert.Equal(t, DirectionOutgoing, dev.Relationships[0].Direction)
}

func TestLoadBytes_Errors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"invalid cue", `models: {`},
		{"unknown property kind", `models: {Developer: {properties: {age: "decimal"}}}`},
		{"missing relationship model", `models: {Developer: {relationships: {coffee: {target: "Coffee"}}}}`},
		{"missing relationship target", `models: {Developer: {relationships: {coffee: {model: "Consumed"}}}}`},
		{"invalid direction", `models: {Developer: {relationships: {coffee: {model: "Consumed", target: "Coffee", direction: "UP"}}}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, LoadBytes(NewRegistry(), []byte(tc.src)))
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.cue")
	require.NoError(t, os.WriteFile(path, []byte(sampleSchema), 0o644))

	reg := NewRegistry()
	require.NoError(t, LoadFile(reg, path))

	_, ok := reg.Node("Developer")
	assert.True(t, ok)

	assert.Error(t, LoadFile(NewRegistry(), filepath.Join(t.TempDir(), "missing.cue")))
}
