package main

//go:generate swag init -g cmd/audit/main.go -o docs

// @title           Trade Audit API
// @version         0.1.0
// @description     Fill ingestion, position reconstruction, taint filtering, and competition metrics.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
