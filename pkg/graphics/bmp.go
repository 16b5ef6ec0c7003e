package graphics

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"
)

// BMP圧縮方式
const (
	biRLE8 = 1
	biRLE4 = 2
)

// BMPファイルヘッダー + BITMAPINFOHEADER (14 + 40バイト)
type bmpHeader struct {
	Signature       [2]byte
	FileSize        uint32
	Reserved        uint32
	DataOffset      uint32
	HeaderSize      uint32
	Width           int32
	Height          int32 // 負の場合はトップダウン
	Planes          uint16
	BitCount        uint16
	Compression     uint32
	ImageSize       uint32
	XPixelsPerMeter int32
	YPixelsPerMeter int32
	ColorsUsed      uint32
	ColorsImportant uint32
}

func isRLEBMP(data []byte) bool {
	if len(data) < 34 || data[0] != 'B' || data[1] != 'M' {
		return false
	}
	compression := binary.LittleEndian.Uint32(data[30:34])
	return compression == biRLE8 || compression == biRLE4
}

// DecodeRLEBMP はRLE8/RLE4圧縮のBMPをデコードする
func DecodeRLEBMP(r io.Reader) (image.Image, error) {
	var hdr bmpHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("failed to read BMP header: %w", err)
	}
	if hdr.Signature != [2]byte{'B', 'M'} {
		return nil, fmt.Errorf("invalid BMP signature: %q", hdr.Signature[:])
	}

	var nibbles bool
	switch {
	case hdr.Compression == biRLE8 && hdr.BitCount == 8:
	case hdr.Compression == biRLE4 && hdr.BitCount == 4:
		nibbles = true
	default:
		return nil, fmt.Errorf("unsupported BMP compression %d with %d-bit depth", hdr.Compression, hdr.BitCount)
	}

	width := int(hdr.Width)
	height := int(hdr.Height)
	topDown := height < 0
	if topDown {
		height = -height
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid BMP size %dx%d", width, height)
	}

	// パレット（BGRA）
	paletteSize := int(hdr.ColorsUsed)
	if paletteSize == 0 {
		paletteSize = 1 << hdr.BitCount
	}
	palette := make(color.Palette, paletteSize)
	for i := range palette {
		var entry [4]byte
		if _, err := io.ReadFull(r, entry[:]); err != nil {
			return nil, fmt.Errorf("failed to read palette entry %d: %w", i, err)
		}
		palette[i] = color.RGBA{R: entry[2], G: entry[1], B: entry[0], A: 255}
	}

	// 画像データの開始位置までスキップ
	read := 14 + 40 + paletteSize*4
	if skip := int(hdr.DataOffset) - read; skip > 0 {
		if _, err := io.CopyN(io.Discard, r, int64(skip)); err != nil {
			return nil, fmt.Errorf("failed to skip to image data: %w", err)
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	d := &rleDecoder{img: img, palette: palette, topDown: topDown}
	if err := d.decode(r, nibbles); err != nil {
		return nil, err
	}
	return img, nil
}

type rleDecoder struct {
	img     *image.RGBA
	palette color.Palette
	topDown bool
	x, y    int
}

func (d *rleDecoder) put(idx uint8) {
	b := d.img.Bounds()
	if d.x < b.Dx() && d.y < b.Dy() && int(idx) < len(d.palette) {
		destY := d.y
		if !d.topDown {
			destY = b.Dy() - 1 - d.y
		}
		d.img.Set(d.x, destY, d.palette[idx])
	}
	d.x++
}

// decode は2バイト単位のRLEストリームを展開する
//   - count > 0: value を count ピクセル分繰り返す（RLE4では上位・下位ニブルを交互に）
//   - count == 0: value が 0=行末, 1=終了, 2=デルタ, それ以外=絶対モード
func (d *rleDecoder) decode(r io.Reader, nibbles bool) error {
	pixel := func(b byte, i int) uint8 {
		if !nibbles {
			return b
		}
		if i%2 == 0 {
			return b >> 4
		}
		return b & 0x0F
	}

	for {
		var pair [2]byte
		if _, err := io.ReadFull(r, pair[:]); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("failed to read RLE data: %w", err)
		}
		count, value := int(pair[0]), pair[1]

		if count > 0 {
			for i := 0; i < count; i++ {
				d.put(pixel(value, i))
			}
			continue
		}

		switch value {
		case 0:
			d.x = 0
			d.y++
		case 1:
			return nil
		case 2:
			var delta [2]byte
			if _, err := io.ReadFull(r, delta[:]); err != nil {
				return fmt.Errorf("failed to read RLE delta: %w", err)
			}
			d.x += int(delta[0])
			d.y += int(delta[1])
		default:
			n := int(value)
			size := n
			if nibbles {
				size = (n + 1) / 2
			}
			// 絶対モードは2バイト境界にパディングされる
			padded := size + size%2
			data := make([]byte, padded)
			if _, err := io.ReadFull(r, data); err != nil {
				return fmt.Errorf("failed to read RLE absolute run: %w", err)
			}
			for i := 0; i < n; i++ {
				if nibbles {
					d.put(pixel(data[i/2], i))
				} else {
					d.put(data[i])
				}
			}
		}
	}
}
