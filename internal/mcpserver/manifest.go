package mcpserver

import (
	"encoding/json"
)

const (
	manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
	registryName   = "io.github.panbanda/hoist"
	repositoryURL  = "https://github.com/panbanda/hoist"
	imageName      = "ghcr.io/panbanda/hoist"
)

// Manifest is the registry's server.json document.
type Manifest struct {
	Schema      string         `json:"$schema"`
	Name        string         `json:"name"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Version     string         `json:"version"`
	WebsiteURL  string         `json:"websiteUrl,omitempty"`
	Repository  ManifestSource `json:"repository"`
	Packages    []PackageEntry `json:"packages"`
}

type ManifestSource struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// PackageEntry says how a client starts the server.
type PackageEntry struct {
	RegistryType     string            `json:"registryType"`
	Identifier       string            `json:"identifier"`
	Transport        map[string]string `json:"transport"`
	RuntimeArguments []Argument        `json:"runtimeArguments,omitempty"`
	PackageArguments []Argument        `json:"packageArguments"`
}

// Argument is a positional or named command-line argument.
type Argument struct {
	Type        string `json:"type"`
	Name        string `json:"name,omitempty"`
	Value       string `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
	IsRequired  bool   `json:"isRequired,omitempty"`
}

// GenerateManifest returns the indented server.json for version. Development
// builds are published as 0.0.0.
func GenerateManifest(version string) ([]byte, error) {
	if version == "" || version == "dev" {
		version = "0.0.0"
	}

	return json.MarshalIndent(Manifest{
		Schema:      manifestSchema,
		Name:        registryName,
		Title:       "hoist",
		Description: "Finds near-duplicate methods across classes and proposes extract-superclass refactorings",
		Version:     version,
		WebsiteURL:  repositoryURL,
		Repository:  ManifestSource{URL: repositoryURL, Source: "github"},
		Packages:    []PackageEntry{ociPackage(version)},
	}, "", "  ")
}

// ociPackage runs the container image with the project mounted at /src.
func ociPackage(version string) PackageEntry {
	return PackageEntry{
		RegistryType: "oci",
		Identifier:   imageName + ":" + version,
		Transport:    map[string]string{"type": "stdio"},
		RuntimeArguments: []Argument{{
			Type:        "named",
			Name:        "--volume",
			Value:       "${PWD}:/src",
			Description: "Project directory to analyze",
		}, {
			Type:  "named",
			Name:  "--workdir",
			Value: "/src",
		}},
		PackageArguments: []Argument{
			{Type: "positional", Value: "mcp"},
			{Type: "named", Name: "--log-level", Value: "warn", Description: "Log level on stderr"},
		},
	}
}
