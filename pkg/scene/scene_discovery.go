package scene

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Scene types reported by discovery
const (
	TypeBuiltin = "builtin"
	TypeJSON    = "json"
	TypeOBJ     = "obj"
	TypePLY     = "ply"
)

// builtinGroup is the group name of the compiled-in scenes
const builtinGroup = "Built-in Scenes"

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Identifier accepted by Create
	Name        string `json:"name"`        // Scene name
	DisplayName string `json:"displayName"` // Display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin", "json", "obj" or "ply"
	FilePath    string `json:"filePath"`    // Path to the scene file (file types only)
	Variant     string `json:"variant"`     // Variant name (optional)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents every known scene, grouped
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

// ListSceneFiles scans dir for *.json scene descriptions and *.obj / *.ply meshes.
// A missing directory yields an empty list.
func ListSceneFiles(dir string) ([]SceneInfo, error) {
	if _, err := os.Stat(dir); err != nil {
		return []SceneInfo{}, nil
	}

	scenes := []SceneInfo{}
	for _, ext := range []string{"*.json", "*.obj", "*.ply"} {
		files, err := filepath.Glob(filepath.Join(dir, ext))
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
		}

		for _, filePath := range files {
			var info SceneInfo
			switch filepath.Ext(filePath) {
			case ".json":
				info, err = ParseJSONMetadata(filePath)
			case ".obj":
				info, err = ParseOBJMetadata(filePath)
			default:
				info = fileSceneInfo(filePath, TypePLY, "Meshes")
			}
			if err != nil {
				// Skip unreadable files, other scenes are still usable
				continue
			}
			scenes = append(scenes, info)
		}
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})

	return scenes, nil
}

// fileSceneInfo returns the fallback metadata derived from a file name
func fileSceneInfo(filePath, sceneType, group string) SceneInfo {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	return SceneInfo{
		ID:          filePath,
		Name:        titleCase(nameWithoutExt),
		DisplayName: titleCase(nameWithoutExt),
		Group:       group,
		Type:        sceneType,
		FilePath:    filePath,
	}
}

// ParseJSONMetadata reads the name of a JSON scene description
func ParseJSONMetadata(filePath string) (SceneInfo, error) {
	sceneInfo := fileSceneInfo(filePath, TypeJSON, "Scene Files")

	data, err := os.ReadFile(filePath)
	if err != nil {
		return sceneInfo, err
	}

	var header struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return sceneInfo, fmt.Errorf("invalid scene file %s: %w", filePath, err)
	}
	if header.Name != "" {
		sceneInfo.Name = header.Name
		sceneInfo.DisplayName = header.Name
	}

	return sceneInfo, nil
}

// ParseOBJMetadata extracts metadata from OBJ header comments
// ("# Scene:", "# Variant:", "# Description:", "# Group:")
func ParseOBJMetadata(filePath string) (SceneInfo, error) {
	sceneInfo := fileSceneInfo(filePath, TypeOBJ, "Meshes")

	// Open file to read header comments
	file, err := os.Open(filePath)
	if err != nil {
		// If we can't read the file, return with fallback values
		return sceneInfo, nil
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Stop parsing at first non-comment line
		if !strings.HasPrefix(line, "#") {
			break
		}

		if strings.HasPrefix(line, "# ") {
			content := strings.TrimPrefix(line, "# ")

			if strings.HasPrefix(content, "Scene:") {
				sceneInfo.Name = strings.TrimSpace(strings.TrimPrefix(content, "Scene:"))
			} else if strings.HasPrefix(content, "Variant:") {
				sceneInfo.Variant = strings.TrimSpace(strings.TrimPrefix(content, "Variant:"))
			} else if strings.HasPrefix(content, "Description:") {
				sceneInfo.Description = strings.TrimSpace(strings.TrimPrefix(content, "Description:"))
			} else if strings.HasPrefix(content, "Group:") {
				sceneInfo.Group = strings.TrimSpace(strings.TrimPrefix(content, "Group:"))
			}
		}
	}

	// Update display name based on parsed metadata
	if sceneInfo.Variant != "" {
		sceneInfo.DisplayName = fmt.Sprintf("%s - %s", sceneInfo.Name, sceneInfo.Variant)
	} else {
		sceneInfo.DisplayName = sceneInfo.Name
	}

	return sceneInfo, scanner.Err()
}

// ListAllScenes returns the built-in scenes and the scene files found in dir, grouped by category
func ListAllScenes(dir string) (ScenesResponse, error) {
	var response ScenesResponse

	fileScenes, err := ListSceneFiles(dir)
	if err != nil {
		return response, fmt.Errorf("failed to list scene files: %w", err)
	}

	allScenes := append(BuiltInScenes(), fileScenes...)

	// Group scenes by their Group field
	groupMap := make(map[string][]SceneInfo)
	for _, scene := range allScenes {
		groupMap[scene.Group] = append(groupMap[scene.Group], scene)
	}

	// Built-in first, then alphabetical
	var groupNames []string
	for groupName := range groupMap {
		if groupName != builtinGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)

	if builtIn, exists := groupMap[builtinGroup]; exists {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   builtinGroup,
			Scenes: builtIn,
		})
	}

	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   groupName,
			Scenes: groupMap[groupName],
		})
	}

	return response, nil
}

// titleCase converts a filename-style string to title case
// e.g., "cornell-empty" -> "Cornell Empty"
func titleCase(s string) string {
	// Replace hyphens and underscores with spaces
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
