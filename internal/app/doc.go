// Package app contains the core application logic. It loads module graphs,
// measures them, and writes reports and profiles, decoupled from any
// specific entrypoint like a CLI.
package app
