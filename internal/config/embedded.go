package config

// Values injected at build time via ldflags.
//
// Build with:
//   go build -ldflags "-X 'github.com/cinematch/cinematch/internal/config.EmbeddedTMDBKey=xxx' \
//                      -X 'github.com/cinematch/cinematch/internal/config.Version=1.2.0'"
var (
	EmbeddedTMDBKey string
	Version         = "dev"
)
