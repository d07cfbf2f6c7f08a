package assets

import (
	"fmt"

	"github.com/spaghettifunk/atlas/engine/resources"
)

// Texture is the decoded payload of a texture asset. Pixel decoding proper
// (TGA, PNG, compression) is per-format and lives with the renderer; the
// cache treats the content as opaque bytes with a size.
type Texture struct {
	Data []byte
}

type TextureDecoder struct{}

func NewTextureDecoder() *TextureDecoder {
	return &TextureDecoder{}
}

func (d *TextureDecoder) TypeName() string {
	return "texture"
}

func (d *TextureDecoder) Decode(_ *resources.Manager, r *resources.Resource, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("texture '%s' has no data", r.Path)
	}
	r.Payload = &Texture{Data: data}
	r.ByteSize = uint64(len(data))
	return nil
}
