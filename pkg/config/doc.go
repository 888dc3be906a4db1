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

/*
Package config loads the engine configuration: where the JSON-LD mapping, the
formatting rules, the GPSR directory and the technical masks live, and how
the batch export and the preview server run.

	            +-------------+
	            |   Config    |
	            |  (paths)    |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+----+ +-----+----+ +-----+----+
	|   YAML   | |   JSON   | |   HCL    |
	|  Parser  | |  Parser  | |  Parser  |
	+----------+ +----------+ +----------+
	                   |
	            +------+------+
	            |  .env +     |
	            |  BSVP_* env |
	            +-------------+

🔄 Flow:
 1. Parser picked by file extension, unknown keys rejected
 2. Defaults filled, relative paths resolved against the config file
 3. BSVP_* variables (optionally from a .env file) override paths
 4. Validate cleans paths and rejects impossible values

🔍 Example:

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(ctx, "bsvp.yaml")
	if err != nil {
		return err
	}
	eng := engine.New(cfg)
*/
package config
