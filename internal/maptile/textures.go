package maptile

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/google/uuid"

	"github.com/Faultbox/regiontile/internal/asset"
	"github.com/Faultbox/regiontile/internal/texture"
)

// ErrNoDecoder is returned when textures are requested without a decoder.
var ErrNoDecoder = errors.New("maptile: no texture decoder configured")

// TextureSource resolves texture ids to images.
type TextureSource interface {
	Texture(ctx context.Context, id string) (image.Image, error)
}

// AssetTextures fetches texture bytes from an asset service and decodes them.
type AssetTextures struct {
	assets  asset.Service
	decoder texture.Decoder
}

// NewAssetTextures returns a TextureSource over assets. A nil decoder makes
// every lookup fail with ErrNoDecoder.
func NewAssetTextures(assets asset.Service, decoder texture.Decoder) *AssetTextures {
	return &AssetTextures{assets: assets, decoder: decoder}
}

// Texture implements TextureSource.
func (t *AssetTextures) Texture(ctx context.Context, id string) (image.Image, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("texture id %q: %w", id, err)
	}
	if t.decoder == nil {
		return nil, ErrNoDecoder
	}
	data, err := t.assets.GetData(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("fetching texture %s: %w", id, err)
	}
	img, err := t.decoder.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding texture %s: %w", id, err)
	}
	return img, nil
}
