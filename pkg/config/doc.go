// Package config loads engine settings and route fixtures from YAML.
//
// A configuration file sets the engine flags and lists routes inline or
// through include globs:
//
//	baseURL: https://api.example.com
//	disableUnhandled: false
//	logging:
//	  level: debug
//	include:
//	  - fixtures/**/*.yaml
//	openapi:
//	  - specs/petstore.yaml
//	routes:
//	  - method: GET
//	    url: /users/:id
//	    json: {id: 1, name: ada}
//	  - method: POST
//	    url: /uploads
//	    status: 201
//	    delay: 150ms
//	  - method: GET
//	    url: /health
//	    passthrough: true
//
// Included files hold either a list of routes or a mapping with a routes
// key. Environment variables override the file (see ApplyEnv).
//
// A loaded Config builds an engine in two steps:
//
//	e, err := engine.New(append(cfg.Options(), engine.WithRoutes(cfg.Apply))...)
package config
