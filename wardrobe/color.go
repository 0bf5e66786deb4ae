package wardrobe

import "image"

// namedColor 颜色兜底估计用的小调色板
type namedColor struct {
	name    string
	r, g, b float64
}

var palette = []namedColor{
	{"black", 20, 20, 20},
	{"white", 240, 240, 240},
	{"gray", 128, 128, 128},
	{"red", 200, 40, 40},
	{"orange", 240, 140, 40},
	{"yellow", 235, 215, 70},
	{"green", 70, 160, 70},
	{"blue", 60, 90, 190},
	{"purple", 140, 70, 170},
	{"pink", 235, 150, 190},
	{"brown", 130, 90, 50},
}

// DominantColor 取非透明像素的平均色并映射到最近的调色板名称。
// 视觉分类缺失 color 字段时的本地兜底，确定性。
func DominantColor(img image.Image) string {
	src := toNRGBA(img)

	var sumR, sumG, sumB, count float64
	for i := 0; i < len(src.Pix); i += 4 {
		a := src.Pix[i+3]
		if a < 32 {
			continue
		}
		sumR += float64(src.Pix[i])
		sumG += float64(src.Pix[i+1])
		sumB += float64(src.Pix[i+2])
		count++
	}
	if count == 0 {
		return ""
	}

	r := sumR / count
	g := sumG / count
	b := sumB / count

	best := palette[0].name
	bestDist := -1.0
	for _, p := range palette {
		dr, dg, db := r-p.r, g-p.g, b-p.b
		dist := dr*dr + dg*dg + db*db
		if bestDist < 0 || dist < bestDist {
			bestDist = dist
			best = p.name
		}
	}
	return best
}
