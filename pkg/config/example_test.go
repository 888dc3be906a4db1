// Copyright 2025 pqmagic-foe
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pqmagic-foe/bsvp-csv-export/pkg/config"
)

func writeExample(name, content string) (string, func()) {
	dir, err := os.MkdirTemp("", "bsvp-config")
	if err != nil {
		panic(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		panic(err)
	}
	return path, func() { os.RemoveAll(dir) }
}

func ExampleLoad_yaml() {
	ctx := context.Background()
	configPath, cleanup := writeExample("bsvp.yaml", `
mapping: /srv/bsvp/jsonld-mapping.json
formatting:
  csv: /srv/bsvp/Formatierungen.yaml
gpsr_dir: /srv/bsvp/GPSR
workers: 8
`)
	defer cleanup()

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		return
	}

	fmt.Println(cfg)
	fmt.Println("jsonld rules:", cfg.JSONLDFormatting())

	// Output:
	// mapping=/srv/bsvp/jsonld-mapping.json formatting=/srv/bsvp/Formatierungen.yaml gpsr=/srv/bsvp/GPSR workers=8
	// jsonld rules: /srv/bsvp/Formatierungen.yaml
}

func ExampleLoad_json() {
	ctx := context.Background()
	configPath, cleanup := writeExample("bsvp.json", `{
		"mapping": "/srv/bsvp/jsonld-mapping.json",
		"formatting": {"csv": "/srv/bsvp/csv.yaml", "jsonld": "/srv/bsvp/jsonld.yaml"},
		"gpsr_dir": "/srv/bsvp/GPSR"
	}`)
	defer cleanup()

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		return
	}

	fmt.Println(cfg)
	fmt.Println("jsonld rules:", cfg.JSONLDFormatting())

	// Output:
	// mapping=/srv/bsvp/jsonld-mapping.json formatting=/srv/bsvp/csv.yaml gpsr=/srv/bsvp/GPSR workers=4
	// jsonld rules: /srv/bsvp/jsonld.yaml
}

func ExampleLoad_hcl() {
	ctx := context.Background()
	configPath, cleanup := writeExample("bsvp.hcl", `
mapping  = "/srv/bsvp/jsonld-mapping.json"
gpsr_dir = "/srv/bsvp/GPSR"
workers  = 2

formatting {
  csv = "/srv/bsvp/Formatierungen.yaml"
}
`)
	defer cleanup()

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		return
	}

	fmt.Println(cfg)

	// Output:
	// mapping=/srv/bsvp/jsonld-mapping.json formatting=/srv/bsvp/Formatierungen.yaml gpsr=/srv/bsvp/GPSR workers=2
}

func ExampleConfig_Validate() {
	cfg := &config.Config{Workers: -2}
	fmt.Printf("Validation error: %v\n", cfg.Validate())

	cfg.Workers = 0
	err := cfg.Validate()
	fmt.Printf("Config is valid: %v\n", err == nil)
	fmt.Println(cfg)

	// Output:
	// Validation error: workers must not be negative, got -2
	// Config is valid: true
	// mapping=mappings/jsonld/jsonld-mapping.json formatting=configs/Formatierungen.yaml gpsr=configs/GPSR workers=4
}
