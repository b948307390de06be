package news

import (
	"crypto/sha256"
	"encoding/hex"
)

// ArticleID derives the stable index identifier for an article from its
// canonical URL. Re-ingesting the same URL always yields the same id, which
// is what makes upserts overwrite instead of duplicate.
func ArticleID(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}
