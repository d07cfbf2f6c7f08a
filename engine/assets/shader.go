package assets

import (
	"fmt"

	"github.com/spaghettifunk/atlas/engine/core"
	"github.com/spaghettifunk/atlas/engine/resources"
)

/** @brief The tagged kinds a uniform/property value can take. */
type UniformKind int

const (
	UniformFloat UniformKind = iota
	UniformInt
	UniformColor
	UniformVec3
	UniformMatrix4
	UniformTime
)

func (k UniformKind) String() string {
	switch k {
	case UniformFloat:
		return "float"
	case UniformInt:
		return "int"
	case UniformColor:
		return "color"
	case UniformVec3:
		return "vec3"
	case UniformMatrix4:
		return "matrix4"
	case UniformTime:
		return "time"
	}
	return "unknown"
}

func UniformKindFromString(s string) (UniformKind, error) {
	switch s {
	case "float":
		return UniformFloat, nil
	case "int":
		return UniformInt, nil
	case "color":
		return UniformColor, nil
	case "vec3":
		return UniformVec3, nil
	case "matrix4":
		return UniformMatrix4, nil
	case "time":
		return UniformTime, nil
	}
	return 0, fmt.Errorf("string %s is not a valid UniformKind", s)
}

/** @brief A uniform slot a shader declares. */
type UniformDecl struct {
	Name     string
	NameHash uint32
	Kind     UniformKind
}

/** @brief A texture slot a shader declares. Define, when set, names the
 * shader define toggled by the slot being populated. */
type TextureSlot struct {
	Name   string
	Define string
}

// Shader is the decoded payload of a shader definition asset. The actual
// compilation to a GPU program happens in the renderer and is none of the
// cache's business; the cache only needs the declared interface.
type Shader struct {
	Uniforms     []UniformDecl
	TextureSlots []TextureSlot
	Defines      []string
}

// DefineIndex returns the bit index of a define name, or -1.
func (s *Shader) DefineIndex(name string) int {
	for i, d := range s.Defines {
		if d == name {
			return i
		}
	}
	return -1
}

type ShaderDecoder struct {
	log core.Logger
}

func NewShaderDecoder(log core.Logger) *ShaderDecoder {
	return &ShaderDecoder{log: log}
}

func (d *ShaderDecoder) TypeName() string {
	return "shader"
}

func (d *ShaderDecoder) Decode(_ *resources.Manager, r *resources.Resource, data []byte) error {
	doc, err := DecodeDoc(r.Path, data, d.log)
	if err != nil {
		return err
	}

	sh := &Shader{
		Defines: doc.Strings("defines"),
	}

	for _, u := range doc.Tables("uniforms") {
		name := u.String("name", "")
		if name == "" {
			return fmt.Errorf("shader uniform without a name")
		}
		kind, err := UniformKindFromString(u.String("type", "float"))
		if err != nil {
			return err
		}
		sh.Uniforms = append(sh.Uniforms, UniformDecl{
			Name:     name,
			NameHash: core.HashName(name),
			Kind:     kind,
		})
		u.WarnUnknown()
	}

	for _, t := range doc.Tables("textures") {
		slot := TextureSlot{
			Name:   t.String("name", ""),
			Define: t.String("define", ""),
		}
		if slot.Name == "" {
			return fmt.Errorf("shader texture slot without a name")
		}
		if slot.Define != "" && sh.DefineIndex(slot.Define) < 0 {
			return fmt.Errorf("shader texture slot '%s' references undeclared define '%s'", slot.Name, slot.Define)
		}
		sh.TextureSlots = append(sh.TextureSlots, slot)
		t.WarnUnknown()
	}

	doc.WarnUnknown()

	r.Payload = sh
	r.ByteSize = uint64(len(data))

	return nil
}
