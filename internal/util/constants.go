package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const MimePNG = "image/png"

// 证书图片在存储中的目录
const CertificateObjectPrefix = "certificates"
