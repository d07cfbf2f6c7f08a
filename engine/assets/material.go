package assets

import (
	"fmt"

	"github.com/spaghettifunk/atlas/engine/core"
	"github.com/spaghettifunk/atlas/engine/math"
	"github.com/spaghettifunk/atlas/engine/resources"
)

// Documented defaults for material labels. Encoding omits a field whose
// value equals its default; decoding fills these back in.
const (
	defaultShininess float32 = 0.0
	defaultAlphaRef  float32 = 0.3
)

var defaultColor = math.Vec3{X: 1, Y: 1, Z: 1}

/** @brief A tagged uniform/property value, keyed by its name hash. */
type UniformValue struct {
	Name     string
	NameHash uint32
	Kind     UniformKind
	Float    float32
	Int      int32
	Vec3     math.Vec3
	Matrix   math.Mat4
}

/** @brief One texture slot binding with its sampler flags. */
type TextureBinding struct {
	Source   string
	SRGB     bool
	UClamp   bool
	VClamp   bool
	WClamp   bool
	Resource *resources.Resource
}

// Material is the decoded payload of a material asset. The shader and every
// texture source become dependency edges; the material cannot be ready
// before they are. DefineMask and the uniform list are derived
// configuration, recomputed whenever a dependency changes state.
type Material struct {
	ShaderPath string
	Shader     *resources.Resource
	Textures   []TextureBinding
	Defines    []string
	DefineMask uint32
	Uniforms   []UniformValue
	Shininess  float32
	AlphaRef   float32
	Color      math.Vec3
}

type MaterialDecoder struct {
	log core.Logger
}

func NewMaterialDecoder(log core.Logger) *MaterialDecoder {
	return &MaterialDecoder{log: log}
}

func (d *MaterialDecoder) TypeName() string {
	return "material"
}

func (d *MaterialDecoder) Decode(m *resources.Manager, r *resources.Resource, data []byte) error {
	doc, err := DecodeDoc(r.Path, data, d.log)
	if err != nil {
		return err
	}

	mat := &Material{
		ShaderPath: doc.String("shader", ""),
		Defines:    doc.Strings("defines"),
		Shininess:  float32(doc.Float("shininess", float64(defaultShininess))),
		AlphaRef:   float32(doc.Float("alpha_ref", float64(defaultAlphaRef))),
		Color:      vec3FromFloats(doc.Floats("color", nil), defaultColor),
	}

	if !math.InUnitRange(mat.Color) {
		return fmt.Errorf("color values must be between 0.0 and 1.0")
	}
	if mat.Shininess < 0 {
		return fmt.Errorf("shininess must be a non-negative value")
	}

	for _, u := range doc.Tables("uniforms") {
		uv, err := decodeUniform(u)
		if err != nil {
			return err
		}
		mat.Uniforms = append(mat.Uniforms, uv)
		u.WarnUnknown()
	}

	for _, t := range doc.Tables("textures") {
		binding := TextureBinding{
			Source: t.String("source", ""),
			SRGB:   t.Bool("srgb", false),
			UClamp: t.Bool("u_clamp", false),
			VClamp: t.Bool("v_clamp", false),
			WClamp: t.Bool("w_clamp", false),
		}
		mat.Textures = append(mat.Textures, binding)
		t.WarnUnknown()
	}

	doc.WarnUnknown()

	// Sub-asset references become dependency edges.
	if mat.ShaderPath != "" {
		sh, err := m.Load("shader", mat.ShaderPath)
		if err != nil {
			return err
		}
		mat.Shader = sh
		r.AddDependency(sh)
	}
	for i := range mat.Textures {
		if mat.Textures[i].Source == "" {
			continue
		}
		tex, err := m.Load("texture", mat.Textures[i].Source)
		if err != nil {
			return err
		}
		mat.Textures[i].Resource = tex
		r.AddDependency(tex)
	}

	r.Payload = mat
	r.ByteSize = uint64(len(data))

	// Derived configuration must track dependency presence synchronously,
	// inside the same notification that changed the dependency.
	r.SetDependencyHook(func(*resources.Resource) {
		mat.refresh()
	})
	mat.refresh()

	return nil
}

func decodeUniform(u *Doc) (UniformValue, error) {
	name := u.String("name", "")
	if name == "" {
		return UniformValue{}, fmt.Errorf("material uniform without a name")
	}
	uv := UniformValue{
		Name:     name,
		NameHash: core.HashName(name),
		Matrix:   math.NewMat4Identity(),
	}
	switch {
	case u.Has("float_value"):
		uv.Kind = UniformFloat
		uv.Float = float32(u.Float("float_value", 0))
	case u.Has("int_value"):
		uv.Kind = UniformInt
		uv.Int = int32(u.Int("int_value", 0))
	case u.Has("color"):
		uv.Kind = UniformColor
		uv.Vec3 = vec3FromFloats(u.Floats("color", nil), math.Vec3{})
	case u.Has("vec3"):
		uv.Kind = UniformVec3
		uv.Vec3 = vec3FromFloats(u.Floats("vec3", nil), math.Vec3{})
	case u.Has("matrix_value"):
		uv.Kind = UniformMatrix4
		values := u.Floats("matrix_value", nil)
		if len(values) != 16 {
			return UniformValue{}, fmt.Errorf("uniform '%s': matrix_value needs 16 values, got %d", name, len(values))
		}
		for i, v := range values {
			uv.Matrix.Data[i] = float32(v)
		}
	case u.Has("time"):
		uv.Kind = UniformTime
		uv.Float = float32(u.Float("time", 0))
	default:
		uv.Kind = UniformFloat
	}
	return uv, nil
}

// refresh recomputes derived configuration from the shader declaration and
// the current dependency states. Runs inside dependency notifications and
// once at decode time; never lazily on next use.
func (mat *Material) refresh() {
	if mat.Shader == nil || mat.Shader.State() != resources.StateReady {
		return
	}
	sh, ok := mat.Shader.Payload.(*Shader)
	if !ok {
		return
	}
	mat.reconcileUniforms(sh)
	mat.recomputeDefineMask(sh)
}

// reconcileUniforms orders the uniform list by the shader's declarations.
// Entries the file did not carry default to zero (identity for matrices)
// under the declared hash; entries the shader no longer declares are
// dropped.
func (mat *Material) reconcileUniforms(sh *Shader) {
	out := make([]UniformValue, len(sh.Uniforms))
	for i, decl := range sh.Uniforms {
		out[i] = UniformValue{
			Name:     decl.Name,
			NameHash: decl.NameHash,
			Kind:     decl.Kind,
			Matrix:   math.NewMat4Identity(),
		}
		for _, uv := range mat.Uniforms {
			if uv.NameHash == decl.NameHash {
				out[i].Float = uv.Float
				out[i].Int = uv.Int
				out[i].Vec3 = uv.Vec3
				out[i].Matrix = uv.Matrix
				break
			}
		}
	}
	mat.Uniforms = out
}

// recomputeDefineMask folds the file's explicit defines with the defines
// toggled by populated texture slots.
func (mat *Material) recomputeDefineMask(sh *Shader) {
	var mask uint32
	for _, name := range mat.Defines {
		if idx := sh.DefineIndex(name); idx >= 0 {
			mask |= 1 << uint(idx)
		}
	}
	for i, slot := range sh.TextureSlots {
		if slot.Define == "" || i >= len(mat.Textures) {
			continue
		}
		tex := mat.Textures[i].Resource
		if tex != nil && tex.State() == resources.StateReady {
			if idx := sh.DefineIndex(slot.Define); idx >= 0 {
				mask |= 1 << uint(idx)
			}
		}
	}
	mat.DefineMask = mask
}

// Encode writes the material back to its text form, omitting every label
// whose value equals the documented default.
func (mat *Material) Encode() ([]byte, error) {
	b := NewDocBuilder()
	if mat.ShaderPath != "" {
		b.Set("shader", mat.ShaderPath)
	}
	if mat.Shininess != defaultShininess {
		b.Set("shininess", float64(mat.Shininess))
	}
	if mat.AlphaRef != defaultAlphaRef {
		b.Set("alpha_ref", float64(mat.AlphaRef))
	}
	if mat.Color != defaultColor {
		b.Set("color", []float64{float64(mat.Color.X), float64(mat.Color.Y), float64(mat.Color.Z)})
	}
	if len(mat.Defines) > 0 {
		defines := make([]interface{}, len(mat.Defines))
		for i, d := range mat.Defines {
			defines[i] = d
		}
		b.Set("defines", defines)
	}

	var textures []map[string]interface{}
	for _, t := range mat.Textures {
		entry := map[string]interface{}{"source": t.Source}
		if t.SRGB {
			entry["srgb"] = true
		}
		if t.UClamp {
			entry["u_clamp"] = true
		}
		if t.VClamp {
			entry["v_clamp"] = true
		}
		if t.WClamp {
			entry["w_clamp"] = true
		}
		textures = append(textures, entry)
	}
	if len(textures) > 0 {
		b.Set("textures", textures)
	}

	var uniforms []map[string]interface{}
	for _, uv := range mat.Uniforms {
		entry, keep := encodeUniform(uv)
		if keep {
			uniforms = append(uniforms, entry)
		}
	}
	if len(uniforms) > 0 {
		b.Set("uniforms", uniforms)
	}

	return b.Encode()
}

func encodeUniform(uv UniformValue) (map[string]interface{}, bool) {
	entry := map[string]interface{}{"name": uv.Name}
	switch uv.Kind {
	case UniformFloat:
		if uv.Float == 0 {
			return nil, false
		}
		entry["float_value"] = float64(uv.Float)
	case UniformInt:
		if uv.Int == 0 {
			return nil, false
		}
		entry["int_value"] = int64(uv.Int)
	case UniformColor, UniformVec3:
		if uv.Vec3 == (math.Vec3{}) {
			return nil, false
		}
		label := "color"
		if uv.Kind == UniformVec3 {
			label = "vec3"
		}
		entry[label] = []float64{float64(uv.Vec3.X), float64(uv.Vec3.Y), float64(uv.Vec3.Z)}
	case UniformMatrix4:
		if uv.Matrix.IsIdentity() {
			return nil, false
		}
		values := make([]float64, 16)
		for i, v := range uv.Matrix.Data {
			values[i] = float64(v)
		}
		entry["matrix_value"] = values
	case UniformTime:
		if uv.Float == 0 {
			return nil, false
		}
		entry["time"] = float64(uv.Float)
	default:
		return nil, false
	}
	return entry, true
}

func vec3FromFloats(values []float64, def math.Vec3) math.Vec3 {
	if len(values) != 3 {
		return def
	}
	return math.Vec3{
		X: float32(values[0]),
		Y: float32(values[1]),
		Z: float32(values[2]),
	}
}
