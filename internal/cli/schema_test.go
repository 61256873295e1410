package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `
models: {
	Developer: {
		labels: ["Developer", "Person"]
		properties: {name: "string", age: "int"}
		relationships: {
			coffee: {
				model:     "Consumed"
				target:    "Coffee"
				direction: "OUTGOING"
			}
		}
	}
	Coffee: {
		properties: {flavor: "string"}
	}
}
relationships: {
	Consumed: {type: "CONSUMED"}
}
`

func writeSchema(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.cue")
	require.NoError(t, os.WriteFile(path, []byte(testSchema), 0o644))
	return path
}

func TestSchemaCommand_SummarizesModels(t *testing.T) {
	out, err := runCommand(t, "", "schema", writeSchema(t))

	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 2 model(s)")
	assert.Contains(t, out, "Developer (:Developer:Person)")
	assert.Contains(t, out, "coffee -> Coffee (Consumed)")
}

func TestSchemaCommand_FailsOnBadSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.cue")
	require.NoError(t, os.WriteFile(path, []byte(`models: {Developer: {properties: {age: "decimal"}}}`), 0o644))

	_, err := runCommand(t, "", "schema", path)

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestPlanCommand_PrintsTraversalClauses(t *testing.T) {
	out, err := runCommand(t, "", "plan", "--schema", writeSchema(t), "Developer")

	require.NoError(t, err)
	assert.Contains(t, out, "OPTIONAL MATCH (n)-[:CONSUMED]->(coffee:Coffee)")
}

func TestPlanCommand_UnknownModelIsCommandError(t *testing.T) {
	_, err := runCommand(t, "", "plan", "--schema", writeSchema(t), "Ghost")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestPlanCommand_ModelWithoutRelationships(t *testing.T) {
	out, err := runCommand(t, "", "plan", "--schema", writeSchema(t), "Coffee")

	require.NoError(t, err)
	assert.Contains(t, out, "No relationships to fetch")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grapnel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
connection:
  uri: bolt://localhost:7687
  username: neo4j
  password: secret
  database: graph
schemas:
  - models.cue
strict_filters: true
`), 0o644))

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "bolt://localhost:7687", cfg.Connection.URI)
	assert.Equal(t, "graph", cfg.Connection.Database)
	assert.Equal(t, []string{"models.cue"}, cfg.Schemas)
	assert.True(t, cfg.Strict)
}

func TestLoadConfig_RequiresSchemas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grapnel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("connection:\n  uri: bolt://localhost:7687\n"), 0o644))

	_, err := LoadConfig(path)

	assert.Error(t, err)
}
