package agent

import (
	"fmt"
	"time"

	"github.com/gosuda/randevu/internal/domain"
)

var turkishDays = [...]string{"Pazartesi", "Salı", "Çarşamba", "Perşembe", "Cuma", "Cumartesi", "Pazar"}

// systemPrompt primes a fresh session. The current date anchors relative
// day references ("bugün", "yarın") that the model translates into week
// offsets and weekday indexes for the tools.
func systemPrompt(tenant *domain.Tenant, now time.Time) string {
	dayIdx := (int(now.Weekday()) - int(time.Monday) + 7) % 7
	return fmt.Sprintf(
		"Sen %s işletmesinin rezervasyon asistanısın. Müşterilerle Türkçe konuşursun; "+
			"kısa, kibar ve net yanıtlar verirsin.\n\n"+
			"Bugün %s, %s. Haftalar Pazartesi başlar: week_offset 0 bu hafta, weekday 0 Pazartesi'dir. "+
			"Saat aralıklarını kullanıcının yazdığı gibi ilet (örn. \"9-10\", \"sabah 9-10\"); "+
			"saat yorumunu araçlar yapar.\n\n"+
			"Rezervasyon işlemleri için her zaman araçları kullan; işlem sonuçlarını kendi sözlerinle özetle. "+
			"Bir araç hata döndürürse kullanıcıya nazikçe açıkla ve gerekirse düzeltme iste.",
		tenant.Name,
		now.Format("02.01.2006"),
		turkishDays[dayIdx],
	)
}
