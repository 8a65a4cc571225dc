// Package config loads, validates and watches the gateway configuration.
//
// The configuration is a single YAML document:
//
//	apiVersion: gateway.avaguard.io/v1
//	kind: Gateway
//	metadata:
//	  name: next-article
//	spec:
//	  environment: ${ENVIRONMENT:-development}
//	  listener:
//	    port: 8080
//	  upstream:
//	    url: http://127.0.0.1:3002
//	  auth:
//	    keys: ["${BACKEND_KEY}", "${BACKEND_KEY_OLD:-}"]
//	    allowlist: ["10.0.0.0/8"]
//
// ${VAR} and ${VAR:-default} are substituted from the environment before
// parsing; $$ yields a literal dollar sign.
package config
