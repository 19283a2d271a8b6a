package metadata

/**
 * @brief A programmable pipeline stage.
 */
type ShaderStage int

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageFragment
	ShaderStageGeometry
	ShaderStageTessControl
	ShaderStageTessEvaluation
	ShaderStageCompute
)

/** @brief Stages in link order. */
var ShaderStages = []ShaderStage{
	ShaderStageVertex,
	ShaderStageTessControl,
	ShaderStageTessEvaluation,
	ShaderStageGeometry,
	ShaderStageFragment,
	ShaderStageCompute,
}

var stageNames = map[ShaderStage]string{
	ShaderStageVertex:         "vertex",
	ShaderStageFragment:       "fragment",
	ShaderStageGeometry:       "geometry",
	ShaderStageTessControl:    "tess_control",
	ShaderStageTessEvaluation: "tess_eval",
	ShaderStageCompute:        "compute",
}

func (s ShaderStage) String() string {
	if n, ok := stageNames[s]; ok {
		return n
	}
	return "unknown"
}

// ParseShaderStage maps the names used in material files back to stages.
func ParseShaderStage(name string) (ShaderStage, bool) {
	for stage, n := range stageNames {
		if n == name {
			return stage, true
		}
	}
	return 0, false
}

// StageForKind returns the pipeline stage of a shader source kind. HLSL
// sources carry several entry points and have no single stage.
func StageForKind(kind AssetKind) (ShaderStage, bool) {
	switch kind {
	case AssetKindVertexShader:
		return ShaderStageVertex, true
	case AssetKindFragmentShader:
		return ShaderStageFragment, true
	case AssetKindGeometryShader:
		return ShaderStageGeometry, true
	case AssetKindTessControlShader:
		return ShaderStageTessControl, true
	case AssetKindTessEvaluationShader:
		return ShaderStageTessEvaluation, true
	case AssetKindComputeShader:
		return ShaderStageCompute, true
	default:
		return 0, false
	}
}

/**
 * @brief Identifier of a shader program in the shader library. Handles are
 * never reused within a session; zero is invalid.
 */
type ShaderHandle uint32

const InvalidShader ShaderHandle = 0

/** @brief Opaque linked GPU program issued by the renderer backend. */
type ProgramHandle uint64

const InvalidProgram ProgramHandle = 0
