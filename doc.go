// Package maestro is a distributed-application orchestration core.
//
// # Overview
//
// Maestro models an application as a graph of resources — containers,
// Dockerfile builds, projects, executables, parameters, connection strings,
// and external services — connected by references. The same graph drives two
// modes:
//
//   - Run: endpoints are allocated on the local machine, references resolve
//     to live values, and resources start in dependency-ordered waves
//     (containers through the Docker API, projects and executables as local
//     processes).
//   - Publish: nothing runs; references resolve to deployment-time
//     placeholders and the graph is projected into a deployment manifest.
//
// # Architecture
//
//	┌─────────────────┐
//	│  App Document   │
//	│  (YAML)         │
//	└────────┬────────┘
//	         │
//	┌────────▼────────┐       ┌─────────────────┐
//	│  Resource Graph │◄──────┤  Builder API    │
//	│  (annotations)  │       │  (pkg/maestro)  │
//	└────────┬────────┘
//	         │
//	    ┌────┴─────┐
//	    │          │
//	┌───▼────┐ ┌───▼─────┐
//	│  Run   │ │ Publish │
//	│ (Docker│ │(manifest│
//	│ +procs)│ │  JSON)  │
//	└────────┘ └─────────┘
//
// # Core Features
//
// Resource Graph:
//   - Annotation-based resource capabilities
//   - Lazily evaluated reference expressions
//   - Reference injection (connection strings, service discovery,
//     endpoint properties)
//
// Run Mode:
//   - Deterministic endpoint allocation
//   - Dependency-ordered launch waves with rollback
//   - Inspection API with WebSocket event stream
//
// Publish Mode:
//   - Deployment manifest with deferred expressions
//   - Parameter inputs with secrets and generated defaults
//
// # Usage
//
// Start an application:
//
//	maestro run --app maestro.yaml
//
// Publish a deployment manifest:
//
//	maestro publish --app maestro.yaml -o manifest.json
//
// Validate an application document:
//
//	maestro validate maestro.yaml
//
// # Configuration
//
// Configuration can be provided via:
//   - YAML file (maestro.config.yaml)
//   - Environment variables (MAESTRO_ prefix)
//   - .env file
//
// Example configuration:
//
//	launcher:
//	  host: localhost
//	  base_port: 15000
//	api:
//	  enabled: true
//	  port: 8460
//	parameters:
//	  pg-password: s3cret
package maestro
