// Copyright (c) 2025 SQL Copilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

// Endpoints contains REST API endpoint paths relative to the base URL.
type Endpoints struct {
	Health          string `mapstructure:"health"`           // e.g., "/"
	Register        string `mapstructure:"register"`         // e.g., "/auth/register"
	Login           string `mapstructure:"login"`            // e.g., "/auth/login"
	Query           string `mapstructure:"query"`            // e.g., "/query"
	Freshness       string `mapstructure:"freshness"`        // e.g., "/freshness"
	Schema          string `mapstructure:"schema"`           // e.g., "/schema"
	Semantic        string `mapstructure:"semantic"`         // e.g., "/semantic"
	SemanticSuggest string `mapstructure:"semantic_suggest"` // e.g., "/semantic/suggest"
	SemanticSave    string `mapstructure:"semantic_save"`    // e.g., "/semantic/save"
}

// DefaultEndpoints returns the paths served by the stock backend.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Health:          "/",
		Register:        "/auth/register",
		Login:           "/auth/login",
		Query:           "/query",
		Freshness:       "/freshness",
		Schema:          "/schema",
		Semantic:        "/semantic",
		SemanticSuggest: "/semantic/suggest",
		SemanticSave:    "/semantic/save",
	}
}

// withDefaults fills blank paths from DefaultEndpoints.
func (e Endpoints) withDefaults() Endpoints {
	d := DefaultEndpoints()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&e.Health, d.Health)
	fill(&e.Register, d.Register)
	fill(&e.Login, d.Login)
	fill(&e.Query, d.Query)
	fill(&e.Freshness, d.Freshness)
	fill(&e.Schema, d.Schema)
	fill(&e.Semantic, d.Semantic)
	fill(&e.SemanticSuggest, d.SemanticSuggest)
	fill(&e.SemanticSave, d.SemanticSave)
	return e
}
