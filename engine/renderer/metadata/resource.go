package metadata

import "path/filepath"

/** @brief The kind of an asset, fully determined by its file extension. */
type AssetKind int

/** @brief Pre-defined asset kinds. */
const (
	/** @brief Anything the extension table does not know. */
	AssetKindUnknown AssetKind = iota
	/** @brief Decoded image, uploaded to the GPU. */
	AssetKindTexture
	/** @brief Mesh container (obj, fbx, gltf, glb). */
	AssetKindModel
	/** @brief Material (.dmat). */
	AssetKindMaterial
	/** @brief Scene document (.dscene). */
	AssetKindScene
	AssetKindVertexShader
	AssetKindFragmentShader
	AssetKindGeometryShader
	AssetKindComputeShader
	AssetKindTessControlShader
	AssetKindTessEvaluationShader
	AssetKindHlslShader
)

var kindNames = map[AssetKind]string{
	AssetKindUnknown:              "unknown",
	AssetKindTexture:              "texture",
	AssetKindModel:                "model",
	AssetKindMaterial:             "material",
	AssetKindScene:                "scene",
	AssetKindVertexShader:         "vertex-shader",
	AssetKindFragmentShader:       "fragment-shader",
	AssetKindGeometryShader:       "geometry-shader",
	AssetKindComputeShader:        "compute-shader",
	AssetKindTessControlShader:    "tess-control-shader",
	AssetKindTessEvaluationShader: "tess-evaluation-shader",
	AssetKindHlslShader:           "hlsl-shader",
}

func (k AssetKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// IsShaderSource reports whether the kind holds shader source text.
func (k AssetKind) IsShaderSource() bool {
	return k >= AssetKindVertexShader && k <= AssetKindHlslShader
}

// Extension table. Case sensitive on purpose: ".PNG" is Unknown.
var extensionKinds = map[string]AssetKind{
	".jpg":    AssetKindTexture,
	".jpeg":   AssetKindTexture,
	".png":    AssetKindTexture,
	".bmp":    AssetKindTexture,
	".tga":    AssetKindTexture,
	".hdr":    AssetKindTexture,
	".exr":    AssetKindTexture,
	".tiff":   AssetKindTexture,
	".tif":    AssetKindTexture,
	".obj":    AssetKindModel,
	".fbx":    AssetKindModel,
	".gltf":   AssetKindModel,
	".glb":    AssetKindModel,
	".dmat":   AssetKindMaterial,
	".dscene": AssetKindScene,
	".vert":   AssetKindVertexShader,
	".frag":   AssetKindFragmentShader,
	".geom":   AssetKindGeometryShader,
	".comp":   AssetKindComputeShader,
	".tesc":   AssetKindTessControlShader,
	".tese":   AssetKindTessEvaluationShader,
	".hlsl":   AssetKindHlslShader,
}

// KindForPath maps a file path to its asset kind via the extension table.
func KindForPath(path string) AssetKind {
	if k, ok := extensionKinds[filepath.Ext(path)]; ok {
		return k
	}
	return AssetKindUnknown
}
