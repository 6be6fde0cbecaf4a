package api

import (
	"github.com/samcharles93/ktxload/internal/transcode"
	"github.com/samcharles93/ktxload/pkg/ktx2"
)

type ResponseError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ContainerInfo describes a parsed container.
type ContainerInfo struct {
	VkFormat         uint32          `json:"vk_format"`
	TypeSize         uint32          `json:"type_size"`
	Width            uint32          `json:"width"`
	Height           uint32          `json:"height"`
	LevelCount       uint32          `json:"level_count"`
	Supercompression string          `json:"supercompression"`
	Model            string          `json:"model"`
	HasAlpha         bool            `json:"has_alpha"`
	ByteSize         int             `json:"byte_size"`
	Levels           []LevelInfo     `json:"levels"`
	DFD              FormatInfo      `json:"dfd"`
	KeyValues        []KeyValueInfo  `json:"key_values,omitempty"`
	Global           *GlobalDataInfo `json:"global_data,omitempty"`
	Warnings         []string        `json:"warnings,omitempty"`
}

type LevelInfo struct {
	Level                  int    `json:"level"`
	Width                  int    `json:"width"`
	Height                 int    `json:"height"`
	ByteOffset             uint64 `json:"byte_offset"`
	ByteLength             uint64 `json:"byte_length"`
	UncompressedByteLength uint64 `json:"uncompressed_byte_length"`
}

type FormatInfo struct {
	ColorModel         string       `json:"color_model"`
	ColorPrimaries     uint8        `json:"color_primaries"`
	TransferFunction   string       `json:"transfer_function"`
	PremultipliedAlpha bool         `json:"premultiplied_alpha"`
	BlockWidth         int          `json:"block_width"`
	BlockHeight        int          `json:"block_height"`
	BytesPlane0        uint8        `json:"bytes_plane0"`
	Samples            []SampleInfo `json:"samples"`
}

type SampleInfo struct {
	Channel    uint8  `json:"channel"`
	Qualifiers uint8  `json:"qualifiers"`
	BitOffset  uint16 `json:"bit_offset"`
	BitLength  uint8  `json:"bit_length"`
}

type KeyValueInfo struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type GlobalDataInfo struct {
	Layout          string      `json:"layout"`
	EndpointCount   uint16      `json:"endpoint_count"`
	SelectorCount   uint16      `json:"selector_count"`
	EndpointsLength uint32      `json:"endpoints_byte_length"`
	SelectorsLength uint32      `json:"selectors_byte_length"`
	TablesLength    uint32      `json:"tables_byte_length"`
	ExtendedLength  uint32      `json:"extended_byte_length"`
	Images          []ImageInfo `json:"images"`
}

type ImageInfo struct {
	Flags       uint32 `json:"flags"`
	RGBOffset   uint32 `json:"rgb_offset"`
	RGBLength   uint32 `json:"rgb_length"`
	AlphaOffset uint32 `json:"alpha_offset"`
	AlphaLength uint32 `json:"alpha_length"`
}

// Describe summarises c for JSON output.
func Describe(c *ktx2.Container) ContainerInfo {
	h := c.Header
	info := ContainerInfo{
		VkFormat:         h.VkFormat,
		TypeSize:         h.TypeSize,
		Width:            h.PixelWidth,
		Height:           h.PixelHeight,
		LevelCount:       h.LevelCount,
		Supercompression: h.Supercompression.String(),
		Model:            c.Model().String(),
		HasAlpha:         c.HasAlpha(),
		ByteSize:         len(c.Data),
		Warnings:         c.Warnings,
		DFD: FormatInfo{
			ColorModel:         c.DFD.ColorModel.String(),
			ColorPrimaries:     c.DFD.ColorPrimaries,
			TransferFunction:   c.DFD.TransferFunction.String(),
			PremultipliedAlpha: c.DFD.PremultipliedAlpha(),
			BlockWidth:         c.DFD.BlockWidth(),
			BlockHeight:        c.DFD.BlockHeight(),
			BytesPlane0:        c.DFD.BytesPlane[0],
		},
	}
	for i, l := range c.Levels {
		info.Levels = append(info.Levels, LevelInfo{
			Level:                  i,
			Width:                  c.LevelWidth(i),
			Height:                 c.LevelHeight(i),
			ByteOffset:             l.ByteOffset,
			ByteLength:             l.ByteLength,
			UncompressedByteLength: l.UncompressedByteLength,
		})
	}
	for _, s := range c.DFD.Samples {
		info.DFD.Samples = append(info.DFD.Samples, SampleInfo{
			Channel:    s.Channel(),
			Qualifiers: s.Qualifiers(),
			BitOffset:  s.BitOffset,
			BitLength:  s.BitLength,
		})
	}
	for _, kv := range c.KeyValues {
		info.KeyValues = append(info.KeyValues, KeyValueInfo{Key: kv.Key, Value: kv.String()})
	}
	if g := c.Global; g != nil {
		gi := &GlobalDataInfo{
			Layout:          g.Layout.String(),
			EndpointCount:   g.EndpointCount,
			SelectorCount:   g.SelectorCount,
			EndpointsLength: g.EndpointsByteLength,
			SelectorsLength: g.SelectorsByteLength,
			TablesLength:    g.TablesByteLength,
			ExtendedLength:  g.ExtendedByteLength,
		}
		for _, d := range g.ImageDescs {
			gi.Images = append(gi.Images, ImageInfo{
				Flags:       d.ImageFlags,
				RGBOffset:   d.RGBSliceByteOffset,
				RGBLength:   d.RGBSliceByteLength,
				AlphaOffset: d.AlphaSliceByteOffset,
				AlphaLength: d.AlphaSliceByteLength,
			})
		}
		info.Global = gi
	}
	return info
}

// NegotiateResponse is the outcome of format negotiation for a container.
type NegotiateResponse struct {
	Target           string `json:"target"`
	TargetCode       uint8  `json:"target_code"`
	GLInternalFormat uint32 `json:"gl_internal_format"`
	Model            string `json:"model"`
	HasAlpha         bool   `json:"has_alpha"`
	Capabilities     string `json:"capabilities"`
	// Supported reports whether the configured engine can produce Target.
	Supported bool `json:"supported"`
}

// TextureResponse describes a stored texture. Level data is fetched
// separately.
type TextureResponse struct {
	ID                 string          `json:"id"`
	Object             string          `json:"object"`
	Digest             string          `json:"digest"`
	CreatedAt          int64           `json:"created_at"`
	Format             string          `json:"format"`
	GLInternalFormat   uint32          `json:"gl_internal_format"`
	Width              int             `json:"width"`
	Height             int             `json:"height"`
	MinFilter          string          `json:"min_filter"`
	MagFilter          string          `json:"mag_filter"`
	Encoding           string          `json:"encoding"`
	PremultipliedAlpha bool            `json:"premultiplied_alpha"`
	ByteSize           int             `json:"byte_size"`
	Levels             []TextureLevels `json:"levels"`
}

type TextureLevels struct {
	Level    int `json:"level"`
	Width    int `json:"width"`
	Height   int `json:"height"`
	ByteSize int `json:"byte_size"`
}

type DeleteTextureResp struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

func textureResponse(rec *textureRecord) TextureResponse {
	t := rec.Texture
	resp := TextureResponse{
		ID:                 rec.ID,
		Object:             "texture",
		Digest:             rec.Digest,
		CreatedAt:          rec.CreatedAt.Unix(),
		Format:             t.Format.String(),
		GLInternalFormat:   t.Format.GLInternalFormat(),
		Width:              t.Width,
		Height:             t.Height,
		MinFilter:          t.MinFilter.String(),
		MagFilter:          t.MagFilter.String(),
		Encoding:           t.Encoding.String(),
		PremultipliedAlpha: t.PremultipliedAlpha,
		ByteSize:           t.ByteSize(),
	}
	for i, l := range t.Levels {
		resp.Levels = append(resp.Levels, TextureLevels{Level: i, Width: l.Width, Height: l.Height, ByteSize: len(l.Data)})
	}
	return resp
}

func negotiateResponse(c *ktx2.Container, caps transcode.Capabilities, target transcode.TargetFormat, supported bool) NegotiateResponse {
	return NegotiateResponse{
		Target:           target.String(),
		TargetCode:       uint8(target),
		GLInternalFormat: target.GLInternalFormat(),
		Model:            c.Model().String(),
		HasAlpha:         c.HasAlpha(),
		Capabilities:     caps.String(),
		Supported:        supported,
	}
}
