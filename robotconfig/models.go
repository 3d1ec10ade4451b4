package robotconfig

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ListModels returns the robot kinds available under root, sorted. A kind is
// available when <root>/entities/robots/<kind>/<kind>.model.yaml exists.
func ListModels(root string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(root), robotsDir+"/*/*"+modelFileSuffix)
	if err != nil {
		return nil, fmt.Errorf("glob robot models: %w", err)
	}

	models := make([]string, 0, len(matches))
	for _, match := range matches {
		dir := path.Base(path.Dir(match))
		stem := strings.TrimSuffix(path.Base(match), modelFileSuffix)
		// Stray files such as <kind>/extra.model.yaml are not loadable by kind
		if dir != stem {
			continue
		}
		models = append(models, stem)
	}
	sort.Strings(models)
	return models, nil
}
