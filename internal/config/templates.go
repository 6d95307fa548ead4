package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "codec", "":
		return codecTemplate, nil
	case "inspect":
		return inspectTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const codecTemplate = `[format]
continue_tag = 0x003C
max_payload = 8224

[decode]
unknown_continuable = false
# Extra tags that may span continuation frames (e.g. 0x00EB MSODRAWINGGROUP is built in).
continuable_tags = []

[dump]
human_sizes = true
limit = 0
`

const inspectTemplate = `[format]
continue_tag = 0x003C
max_payload = 8224

[decode]
unknown_continuable = false
continuable_tags = []

[inspect]
addr = ":9300"
cors_origins = ["http://localhost:3000"]
max_body_bytes = 33554432
# token = "change-me"
`
