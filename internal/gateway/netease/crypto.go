package netease

import (
	"crypto/aes"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// eapiKey ключ AES для подписи eapi запросов
var eapiKey = []byte("e82ckenh8dichen8")

// picIDMagic магическая строка для шифрования идентификаторов обложек
const picIDMagic = "3go8&$8*3*3h0k(2)2"

// hashHexDigest вычисляет MD5 и возвращает hex строку
func hashHexDigest(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// encryptParams подписывает и шифрует payload для eapi endpoint.
// Путь /eapi/ заменяется на /api/ при вычислении подписи.
func encryptParams(apiURL string, payload any) (string, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse api url: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	urlPath := strings.Replace(u.Path, "/eapi/", "/api/", 1)
	digest := hashHexDigest(fmt.Sprintf("nobody%suse%smd5forencrypt", urlPath, body))
	params := fmt.Sprintf("%s-36cd479b6b5-%s-36cd479b6b5-%s", urlPath, body, digest)

	encrypted, err := aesECBEncrypt([]byte(params), eapiKey)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt params: %w", err)
	}

	return hex.EncodeToString(encrypted), nil
}

// aesECBEncrypt шифрует данные AES-128-ECB с дополнением PKCS7
func aesECBEncrypt(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	padded := pkcs7Pad(plaintext, block.BlockSize())
	encrypted := make([]byte, len(padded))

	for i := 0; i < len(padded); i += block.BlockSize() {
		block.Encrypt(encrypted[i:i+block.BlockSize()], padded[i:i+block.BlockSize()])
	}

	return encrypted, nil
}

// pkcs7Pad дополняет данные до размера блока
func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padding)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padding)
	}
	return padded
}

// EncryptPicID шифрует идентификатор обложки для построения прямой ссылки
func EncryptPicID(id string) string {
	xored := make([]byte, len(id))
	for i := 0; i < len(id); i++ {
		xored[i] = id[i] ^ picIDMagic[i%len(picIDMagic)]
	}

	sum := md5.Sum(xored)
	result := base64.StdEncoding.EncodeToString(sum[:])
	result = strings.ReplaceAll(result, "/", "_")
	result = strings.ReplaceAll(result, "+", "-")

	return result
}

// PicURL возвращает прямую ссылку на обложку заданного размера
func PicURL(picID int64, size int) string {
	if picID == 0 {
		return ""
	}

	enc := EncryptPicID(fmt.Sprintf("%d", picID))
	return fmt.Sprintf("https://p3.music.126.net/%s/%d.jpg?param=%dy%d", enc, picID, size, size)
}
