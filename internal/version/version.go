// 包 version：构建期注入的版本标识
package version

// Commit 由构建参数注入：-ldflags "-X .../internal/version.Commit=$(git rev-parse --short HEAD)"
var Commit = "dev"
