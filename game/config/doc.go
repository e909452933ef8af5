// Package config provides game rules management for the sea battle server.
//
// The config package handles:
//   - Loading rules configurations from JSON or YAML files
//   - Rules validation and verification
//   - Built-in default rules management
//   - Rules discovery and listing
//
// Configuration Format:
//
// Rules are stored as JSON or YAML files in the configs directory. Each
// rules file defines:
//   - The fleet composition: ship classes with type, length and count
//   - The placement retry budget used by automatic fleet placement
//
// Example rules file (classic.json):
//
//	{
//	  "name": "classic",
//	  "fleet": [
//	    {"type": "huge", "length": 4, "count": 1},
//	    {"type": "large", "length": 3, "count": 2},
//	    {"type": "medium", "length": 2, "count": 3},
//	    {"type": "small", "length": 1, "count": 4}
//	  ],
//	  "placement_retries": 1000
//	}
//
// Usage:
//
//	manager := config.NewManager("configs")
//
//	// Load specific rules
//	rules, err := manager.Load("classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Get built-in default rules
//	rules = manager.GetDefault()
//
//	// List available rules
//	names := manager.List()
//
// Validation:
//
// All rules are validated for:
//   - Ship lengths within the board size
//   - Positive ship counts
//   - A positive placement retry budget
package config
