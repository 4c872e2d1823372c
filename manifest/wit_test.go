package manifest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	wserr "github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/schema"
	"github.com/wippyai/wordstore/store/memstore"
	"github.com/wippyai/wordstore/world"
)

// gameWIT is the resolve JSON of
//
//	record vec2 { x: u32, y: u32 }
//	enum direction { north, south }
//	variant status { idle, moving(u8) }
//	record player-state { player-id: u64, pos: vec2, facing: direction, status: status, name: string }
const gameWIT = `{
  "worlds": [],
  "interfaces": [],
  "types": [
    {"name": "vec2", "kind": {"record": {"fields": [
      {"name": "x", "type": "u32"},
      {"name": "y", "type": "u32"}]}}},
    {"name": "direction", "kind": {"enum": {"cases": [
      {"name": "north"},
      {"name": "south"}]}}},
    {"name": "status", "kind": {"variant": {"cases": [
      {"name": "idle"},
      {"name": "moving", "type": "u8"}]}}},
    {"name": "player-state", "kind": {"record": {"fields": [
      {"name": "player-id", "type": "u64"},
      {"name": "pos", "type": 0},
      {"name": "facing", "type": 1},
      {"name": "status", "type": 2},
      {"name": "name", "type": "string"}]}}}
  ],
  "packages": []
}`

const witManifest = `
wit: game.wit.json
namespaces:
  - name: game
    resources:
      - name: Players
        wit: PlayerState
        keys: [player_id]
      - name: Heading
        members:
          - {name: id, type: u32, key: true}
          - {name: facing, type: Option<Direction>}
          - {name: pos, type: Vec2}
`

func writeWIT(t *testing.T, manifest string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "game.wit.json"), []byte(gameWIT), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "world.yaml")
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWITResources(t *testing.T) {
	m, err := ParseFile(writeWIT(t, witManifest))
	if err != nil {
		t.Fatal(err)
	}
	models, err := m.Resources()
	if err != nil {
		t.Fatal(err)
	}
	if len(models) != 2 {
		t.Fatalf("models = %v", models)
	}

	vec2 := schema.Struct("Vec2",
		schema.Field("x", schema.Prim(schema.U32)),
		schema.Field("y", schema.Prim(schema.U32)))
	direction := schema.Enum("Direction", schema.Case("North", nil), schema.Case("South", nil))
	status := schema.Enum("Status", schema.Case("Idle", nil), schema.Case("Moving", schema.Prim(schema.U8)))

	players := schema.Struct("Players",
		schema.KeyField("player_id", schema.Prim(schema.U64)),
		schema.Field("pos", vec2),
		schema.Field("facing", direction),
		schema.Field("status", status),
		schema.Field("name", schema.ByteArray()))
	if !schema.Equal(models[0].Ty, players) {
		t.Errorf("Players = %s\nwant %s", models[0].Ty, players)
	}

	heading := schema.Struct("Heading",
		schema.KeyField("id", schema.Prim(schema.U32)),
		schema.Field("facing", schema.Option(direction)),
		schema.Field("pos", vec2))
	if !schema.Equal(models[1].Ty, heading) {
		t.Errorf("Heading = %s\nwant %s", models[1].Ty, heading)
	}

	ty, err := m.ParseType("Array<Status>")
	if err != nil {
		t.Fatal(err)
	}
	if !schema.Equal(ty, schema.Array(status)) {
		t.Errorf("Array<Status> = %s", ty)
	}
}

func TestWITApply(t *testing.T) {
	ctx := context.Background()
	w, err := world.New(ctx, memstore.New(), admin)
	if err != nil {
		t.Fatal(err)
	}
	m, err := ParseFile(writeWIT(t, witManifest))
	if err != nil {
		t.Fatal(err)
	}
	rep, err := m.Apply(ctx, w, alice)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Registered) != 2 {
		t.Fatalf("apply = %+v", rep)
	}
	r, err := w.ResourceByTag(ctx, "game-Players")
	if err != nil {
		t.Fatal(err)
	}
	if keys := r.Schema.Keys(); len(keys) != 1 || keys[0].Name != "player_id" {
		t.Errorf("keys = %v", keys)
	}
}

func TestWITRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown record", `
wit: game.wit.json
namespaces:
  - name: game
    resources:
      - {name: Players, wit: Missing, keys: [id]}
`},
		{"not a record", `
wit: game.wit.json
namespaces:
  - name: game
    resources:
      - {name: Players, wit: Direction, keys: [north]}
`},
		{"unknown key", `
wit: game.wit.json
namespaces:
  - name: game
    resources:
      - {name: Players, wit: PlayerState, keys: [id]}
`},
		{"no key", `
wit: game.wit.json
namespaces:
  - name: game
    resources:
      - {name: Players, wit: PlayerState}
`},
		{"members and wit", `
wit: game.wit.json
namespaces:
  - name: game
    resources:
      - name: Players
        wit: PlayerState
        members: [{name: id, type: u32, key: true}]
`},
		{"keys without wit", `
namespaces:
  - name: game
    resources:
      - name: Players
        keys: [id]
        members: [{name: id, type: u32, key: true}]
`},
		{"declared and imported", `
wit: game.wit.json
types:
  - name: Vec2
    members: [{name: x, type: u8}]
`},
		{"missing file", `
wit: missing.wit.json
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFile(writeWIT(t, tt.src))
			if !errors.Is(err, wserr.Sentinel(wserr.KindInvalidInput)) {
				t.Fatalf("ParseFile error = %v, want invalid_input", err)
			}
		})
	}

	// without a file the relative path is read from the working directory
	if _, err := Parse(strings.NewReader("wit: missing.wit.json\n")); err == nil {
		t.Error("Parse accepted a missing WIT file")
	}
}
