package texture

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/scenegl/internal/engine/renderer"
	"github.com/Faultbox/scenegl/internal/scene"
)

// Cache maps texture ids to GPU textures. The first image uploaded for an id
// is kept for the life of the cache. Render thread only.
type Cache struct {
	log      *zap.Logger
	textures map[scene.ObjectID]uint32
	upload   func(img *scene.Image) (uint32, error)
	free     func(tex uint32)
}

// NewCache returns a cache uploading through the current GL context.
func NewCache(log *zap.Logger) *Cache {
	return newCache(log, uploadGL, freeGL)
}

func newCache(log *zap.Logger, upload func(*scene.Image) (uint32, error), free func(uint32)) *Cache {
	return &Cache{
		log:      log,
		textures: make(map[scene.ObjectID]uint32),
		upload:   upload,
		free:     free,
	}
}

// Get returns the texture for id, uploading img if the id is new.
func (c *Cache) Get(id scene.ObjectID, img *scene.Image) (uint32, error) {
	if tex, ok := c.textures[id]; ok {
		return tex, nil
	}
	if img == nil {
		return 0, fmt.Errorf("texture %d has no image", id)
	}

	tex, err := c.upload(img)
	if err != nil {
		return 0, fmt.Errorf("uploading texture %d: %w", id, err)
	}
	c.textures[id] = tex
	c.log.Debug("texture uploaded", zap.Uint32("id", uint32(id)), zap.Uint32("gl", tex),
		zap.Int("width", img.Width), zap.Int("height", img.Height))
	return tex, nil
}

// Len returns the number of cached textures.
func (c *Cache) Len() int {
	return len(c.textures)
}

// Release deletes every cached texture.
func (c *Cache) Release() {
	for id, tex := range c.textures {
		c.free(tex)
		delete(c.textures, id)
	}
}

func uploadGL(img *scene.Image) (uint32, error) {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(img.Width), int32(img.Height), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pixels))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if err := renderer.CheckError("upload texture"); err != nil {
		gl.DeleteTextures(1, &tex)
		return 0, err
	}
	return tex, nil
}

func freeGL(tex uint32) {
	gl.DeleteTextures(1, &tex)
}
