package config

// validConfigYAML is a minimal valid configuration.
const validConfigYAML = `
apiVersion: gateway.avaguard.io/v1
kind: Gateway
metadata:
  name: next-article
spec:
  environment: production
  listener:
    port: 8080
  upstream:
    url: http://127.0.0.1:3002
  auth:
    keys: ["k2", "k1"]
    allowlist: ["10.0.0.0/8", "192.168.1.10"]
`

// invalidConfigYAML fails validation.
const invalidConfigYAML = `
apiVersion: gateway.avaguard.io/v1
kind: Gateway
metadata:
  name: next-article
spec:
  listener:
    port: 70000
  upstream:
    url: ftp://example.com
`
