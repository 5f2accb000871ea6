package scene

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/df07/go-pinhole-raytracer/pkg/core"
	"github.com/df07/go-pinhole-raytracer/pkg/loaders"
)

type builtinScene struct {
	info   SceneInfo
	create func() *Scene
}

var builtins = []builtinScene{
	{
		info: SceneInfo{
			ID:          "default",
			Name:        "Default Scene",
			DisplayName: "Default Scene",
			Description: "Green triangle above a white plane, one point light",
		},
		create: NewDefaultScene,
	},
	{
		info: SceneInfo{
			ID:          "cornell",
			Name:        "Cornell Box",
			DisplayName: "Cornell Box",
			Description: "Triangle Cornell box with an area light",
		},
		create: NewCornellScene,
	},
	{
		info: SceneInfo{
			ID:          "occluder",
			Name:        "Occluder",
			DisplayName: "Occluder",
			Description: "Red blocker casting a tinted shadow on a floor",
		},
		create: NewOccluderScene,
	},
}

// BuiltInScenes returns the metadata of the compiled-in scenes
func BuiltInScenes() []SceneInfo {
	infos := make([]SceneInfo, len(builtins))
	for i, b := range builtins {
		infos[i] = b.info
		infos[i].Group = builtinGroup
		infos[i].Type = TypeBuiltin
	}
	return infos
}

// Create builds a scene from a built-in scene ID, a .json scene description
// or a .obj / .ply mesh file
func Create(id string, logger core.Logger) (*Scene, error) {
	for _, b := range builtins {
		if b.info.ID == id {
			return b.create(), nil
		}
	}

	switch strings.ToLower(filepath.Ext(id)) {
	case ".json":
		desc, err := loaders.LoadSceneFile(id)
		if err != nil {
			return nil, err
		}
		return NewSceneFromDescription(desc, logger)
	case ".obj", ".ply":
		return NewMeshScene(id, logger)
	}

	return nil, fmt.Errorf("unknown scene %q", id)
}
