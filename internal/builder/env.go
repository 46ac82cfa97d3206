// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"encoding/json"
	"fmt"

	"github.com/joho/godotenv"
)

// envDefines reads the dotenv files in order and returns a define for each
// variable, keyed "process.env.KEY". Later files win over earlier ones.
func envDefines(files []string) (map[string]string, error) {
	if len(files) == 0 {
		return nil, nil
	}

	vars, err := godotenv.Read(files...)
	if err != nil {
		return nil, fmt.Errorf("read env files: %w", err)
	}

	defines := make(map[string]string, len(vars))
	for key, value := range vars {
		quoted, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		defines["process.env."+key] = string(quoted)
	}
	return defines, nil
}
