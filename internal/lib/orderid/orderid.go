// Package orderid генерирует корреляционные идентификаторы платежных ордеров.
//
// Идентификатор комбинирует отметку времени, фрагмент ID пользователя и
// случайный хвост: два ордера, созданных одним пользователем одновременно,
// никогда не совпадают.
package orderid

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// New возвращает идентификатор вида order_<unixmilli>_<user8>_<rand8>.
func New(userID string) string {
	frag := userID
	if len(frag) > 8 {
		frag = frag[:8]
	}
	tail := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("order_%d_%s_%s", time.Now().UnixMilli(), frag, tail)
}
