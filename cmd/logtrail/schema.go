package main

import (
    "strings"

    "github.com/espegro/logtrail/internal/migrate"
)

const (
    schemaVersionKey  = "schema_version"
    baseSchemaVersion = "1.0.0"
)

// coreSchemaMigrations upgrade record meta written by older producers
func coreSchemaMigrations() migrate.FunctionsObject {
    return migrate.FunctionsObject{
        "1.1.0": splitTags,
        "2.0.0": nestHost,
    }
}

// ecsSchemaMigrations are applied after the core ones for the same version
func ecsSchemaMigrations() migrate.FunctionsObject {
    return migrate.FunctionsObject{
        "2.0.0": dropLegacyFields,
    }
}

// splitTags turns "a, b" into ["a", "b"]
func splitTags(state migrate.State) migrate.State {
    tags, ok := state["tags"].(string)
    if !ok {
        return state
    }

    out := make([]interface{}, 0)
    for _, tag := range strings.Split(tags, ",") {
        if tag = strings.TrimSpace(tag); tag != "" {
            out = append(out, tag)
        }
    }
    state["tags"] = out
    return state
}

// nestHost moves a plain host string to host.name
func nestHost(state migrate.State) migrate.State {
    if host, ok := state["host"].(string); ok {
        state["host"] = map[string]interface{}{"name": host}
    }
    return state
}

// dropLegacyFields removes keys that 2.x consumers reject
func dropLegacyFields(state migrate.State) migrate.State {
    delete(state, "@version")
    delete(state, "type")
    return state
}

// registerSchemaMigrations wires the built-in meta migrations
func registerSchemaMigrations(r *migrate.Registry) error {
    if err := r.Register("core", coreSchemaMigrations()); err != nil {
        return err
    }
    return r.Register("ecs", ecsSchemaMigrations())
}
