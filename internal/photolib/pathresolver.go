package photolib

import (
	"path"
	"path/filepath"
	"strings"
)

// Media directories inside the bundle, relative to its root. Each is
// subdivided into sixteen shards keyed by the first hex character of the
// asset identifier.
const (
	originalsDir   = "originals"
	derivativesDir = "resources/derivatives"
	rendersDir     = "resources/renders"
)

// Generated derivative suffixes in fixed quality order, highest fidelity
// first. A caller probing candidates in order therefore always prefers
// the best surviving rendition.
var derivativeSuffixes = []string{
	"_1_105_c.jpeg", // full-size derivative
	"_1_102_o.jpeg", // large preview
	"_5003_c.jpeg",  // thumbnail
}

// ResolvePaths maps an asset and one of its resources to an ordered list
// of candidate file paths under root, most-preferred first. The resolver
// is a pure mapping: it performs no existence checks. The caller attempts
// each candidate in order and uses the first that exists.
func ResolvePaths(root string, asset *Asset, res *Resource) []string {
	shard := shardFor(asset.UUID)
	if shard == "" {
		return nil
	}

	switch res.Role {
	case RoleRender:
		return []string{
			filepath.Join(root, filepath.FromSlash(rendersDir), shard, asset.UUID+"_1_201_a.jpeg"),
		}
	case RoleLiveVideo:
		return []string{
			filepath.Join(root, filepath.FromSlash(originalsDir), shard, asset.UUID+"_3.mov"),
		}
	case RoleAlternate:
		// RAW counterpart lives beside the original under its own extension.
		return []string{
			filepath.Join(root, filepath.FromSlash(originalsDir), shard, asset.UUID+extensionFor(res, asset)),
		}
	case RoleDerivative:
		return derivativeCandidates(root, shard, asset.UUID)
	default:
		// Primary resource: the original first, then derivatives in
		// descending quality order.
		candidates := []string{
			filepath.Join(root, filepath.FromSlash(originalsDir), shard, asset.UUID+extensionFor(res, asset)),
		}
		return append(candidates, derivativeCandidates(root, shard, asset.UUID)...)
	}
}

func derivativeCandidates(root, shard, uuid string) []string {
	candidates := make([]string, 0, len(derivativeSuffixes))
	for _, suffix := range derivativeSuffixes {
		candidates = append(candidates, filepath.Join(root, filepath.FromSlash(derivativesDir), shard, uuid+suffix))
	}
	return candidates
}

// shardFor returns the case-normalized shard directory for an identifier,
// or "" when the identifier is empty.
func shardFor(uuid string) string {
	if uuid == "" {
		return ""
	}
	return strings.ToLower(uuid[:1])
}

// extensionFor derives the file extension for a resource, preferring its
// declared type identifier and falling back to the asset's original
// filename.
func extensionFor(res *Resource, asset *Asset) string {
	if ext, ok := utiExtensions[res.UTI]; ok {
		return ext
	}
	if asset.OriginalFilename != "" {
		if ext := path.Ext(asset.OriginalFilename); ext != "" {
			return strings.ToLower(ext)
		}
	}
	return ".jpeg"
}

// utiExtensions maps declared type identifiers to on-disk extensions.
var utiExtensions = map[string]string{
	"public.jpeg":               ".jpeg",
	"public.png":                ".png",
	"public.heic":               ".heic",
	"public.tiff":               ".tiff",
	"com.compuserve.gif":        ".gif",
	"com.adobe.raw-image":       ".dng",
	"com.apple.quicktime-movie": ".mov",
	"public.mpeg-4":             ".mp4",
}
