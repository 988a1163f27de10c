// Package config loads and validates the proxy configuration.
//
// Configuration comes from a YAML file, a .env file, and environment
// variables, in increasing order of precedence. Node entries may carry a
// per-node JWT secret as a fragment suffix:
//
//	http://10.0.0.1:8551#jwt-secret=/secrets/node1.hex
//
// Nodes without a suffix use the pool-wide jwt_secret path.
package config
