package registry

import (
	"github.com/spaghettifunk/delta/engine/renderer/metadata"
)

/**
 * @brief The typed component attached to every entry. The set of payloads is
 * closed: only types in this package implement it.
 */
type Payload interface {
	Kind() metadata.AssetKind
	payload()
}

/** @brief Imported meshes of a model file. */
type ModelPayload struct {
	Meshes []*metadata.Mesh
}

/** @brief A texture, possibly still bound to the placeholder while it loads. */
type TexturePayload struct {
	Texture         metadata.TextureHandle
	Width           uint32
	Height          uint32
	Format          metadata.TextureFormat
	HasTransparency bool
	/** @brief True while the placeholder is bound (loading or decode failure). */
	Placeholder bool
	/** @brief Number of completed uploads for this entry. */
	Generation uint32
	/** @brief Set when the last decode failed. */
	Err error
}

/** @brief A material: compiled program plus parameters. */
type MaterialPayload struct {
	Name string
	/** @brief Program in the shader library; InvalidShader until resolved. */
	Shader metadata.ShaderHandle
	/** @brief Stage -> absolute source path. */
	Sources    map[metadata.ShaderStage]string
	Parameters metadata.ParameterCollection
	/** @brief Names of parameters whose value was written in the .dmat file or set by the user. */
	UserSet map[string]struct{}
	/** @brief Texture parameters resolved against the registry. */
	Textures map[string]Reference[*TexturePayload]
}

/** @brief A parsed scene document. */
type ScenePayload struct {
	Document *metadata.SceneDocument
}

/** @brief Shader source text, tagged with the stage its extension implies. */
type ShaderSourcePayload struct {
	SourceKind metadata.AssetKind
	Source     string
}

/** @brief Anything that could not be imported, or whose kind is unknown. */
type UnknownPayload struct {
	Reason string
}

func (*ModelPayload) Kind() metadata.AssetKind          { return metadata.AssetKindModel }
func (*TexturePayload) Kind() metadata.AssetKind        { return metadata.AssetKindTexture }
func (*MaterialPayload) Kind() metadata.AssetKind       { return metadata.AssetKindMaterial }
func (*ScenePayload) Kind() metadata.AssetKind          { return metadata.AssetKindScene }
func (p *ShaderSourcePayload) Kind() metadata.AssetKind { return p.SourceKind }
func (*UnknownPayload) Kind() metadata.AssetKind        { return metadata.AssetKindUnknown }

func (*ModelPayload) payload()        {}
func (*TexturePayload) payload()      {}
func (*MaterialPayload) payload()     {}
func (*ScenePayload) payload()        {}
func (*ShaderSourcePayload) payload() {}
func (*UnknownPayload) payload()      {}

// NewPayload returns the empty payload attached to a freshly created entry of
// the given kind.
func NewPayload(kind metadata.AssetKind) Payload {
	switch kind {
	case metadata.AssetKindTexture:
		return &TexturePayload{Placeholder: true}
	case metadata.AssetKindModel:
		return &ModelPayload{}
	case metadata.AssetKindMaterial:
		return &MaterialPayload{
			Sources:    map[metadata.ShaderStage]string{},
			Parameters: metadata.ParameterCollection{},
			UserSet:    map[string]struct{}{},
			Textures:   map[string]Reference[*TexturePayload]{},
		}
	case metadata.AssetKindScene:
		return &ScenePayload{Document: &metadata.SceneDocument{}}
	case metadata.AssetKindVertexShader,
		metadata.AssetKindFragmentShader,
		metadata.AssetKindGeometryShader,
		metadata.AssetKindComputeShader,
		metadata.AssetKindTessControlShader,
		metadata.AssetKindTessEvaluationShader,
		metadata.AssetKindHlslShader:
		return &ShaderSourcePayload{SourceKind: kind}
	case metadata.AssetKindUnknown:
		return &UnknownPayload{Reason: "unsupported extension"}
	default:
		return &UnknownPayload{Reason: "unsupported kind " + kind.String()}
	}
}
