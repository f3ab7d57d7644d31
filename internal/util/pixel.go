package util

import (
	"encoding/base64"
)

// 1x1透明PNG
const transparentPixelBase64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

var transparentPixel []byte

func init() {
	var err error
	transparentPixel, err = base64.StdEncoding.DecodeString(transparentPixelBase64)
	if err != nil {
		panic("invalid pixel data: " + err.Error())
	}
}

// TransparentPixel 返回1x1透明PNG的字节内容
func TransparentPixel() []byte {
	return transparentPixel
}
