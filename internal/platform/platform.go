// Package platform maps inbound URLs to the social platform owning them.
package platform

import (
	"net/url"
	"regexp"
	"strings"
)

// Platform names a supported social platform.
type Platform string

const (
	Twitter       Platform = "Twitter"
	TwitterDirect Platform = "TwitterDirect"
	Instagram     Platform = "Instagram"
	Reddit        Platform = "Reddit"
	Pixiv         Platform = "Pixiv"
	PixivDirect   Platform = "PixivDirect"
	Tumblr        Platform = "Tumblr"
	Danbooru      Platform = "Danbooru"
	Gelbooru      Platform = "Gelbooru"
	Konachan      Platform = "Konachan"
	Yandere       Platform = "Yandere"
	Eshuushuu     Platform = "Eshuushuu"
	Sankaku       Platform = "Sankaku"
	Zerochan      Platform = "Zerochan"
	AnimePictures Platform = "AnimePictures"
	KemonoParty   Platform = "KemonoParty"
	Youtube       Platform = "Youtube"
	Tiktok        Platform = "Tiktok"
	Coub          Platform = "Coub"
	Joyreactor    Platform = "Joyreactor"
	Osnova        Platform = "Osnova"
)

var tumblrHostRx = regexp.MustCompile(`tumblr\.(com|co\.\w+|org)$`)

var joyreactorHostRx = regexp.MustCompile(`^(img\d+\.)?(m\.)?(joyreactor|reactor|joy)\.(cc|com)$`)

var tiktokHostRx = regexp.MustCompile(`(^|\.)tiktok\.com$`)

// hostTable is the fixed ordered classification table. First match wins.
var hostTable = []struct {
	platform Platform
	hosts    []string
	rx       *regexp.Regexp
}{
	{platform: Twitter, hosts: []string{
		"twitter.com", "www.twitter.com", "mobile.twitter.com",
		"x.com", "www.x.com", "mobile.x.com",
		"nitter.net", "www.nitter.net", "mobile.nitter.net",
	}},
	{platform: TwitterDirect, hosts: []string{"pbs.twimg.com", "video.twimg.com"}},
	{platform: Instagram, hosts: []string{"instagram.com", "www.instagram.com"}},
	{platform: Reddit, hosts: []string{"reddit.com", "www.reddit.com", "old.reddit.com", "redd.it"}},
	{platform: Pixiv, hosts: []string{"pixiv.net", "www.pixiv.net"}},
	{platform: PixivDirect, hosts: []string{"i.pximg.net"}},
	{platform: Tumblr, rx: tumblrHostRx},
	{platform: Danbooru, hosts: []string{"danbooru.donmai.us"}},
	{platform: Gelbooru, hosts: []string{"gelbooru.com", "www.gelbooru.com"}},
	{platform: Konachan, hosts: []string{"konachan.com", "konachan.net", "www.konachan.com", "www.konachan.net"}},
	{platform: Yandere, hosts: []string{"yande.re", "www.yande.re"}},
	{platform: Eshuushuu, hosts: []string{"e-shuushuu.net", "www.e-shuushuu.net"}},
	{platform: Sankaku, hosts: []string{"chan.sankakucomplex.com"}},
	{platform: Zerochan, hosts: []string{"zerochan.net", "www.zerochan.net"}},
	{platform: AnimePictures, hosts: []string{"anime-pictures.net", "www.anime-pictures.net"}},
	{platform: KemonoParty, hosts: []string{"kemono.party", "www.kemono.party", "beta.kemono.party", "kemono.su", "www.kemono.su"}},
	{platform: Youtube, hosts: []string{"youtube.com", "www.youtube.com", "youtu.be", "m.youtube.com"}},
	{platform: Tiktok, rx: tiktokHostRx},
	{platform: Coub, hosts: []string{"coub.com", "www.coub.com"}},
	{platform: Joyreactor, rx: joyreactorHostRx},
	{platform: Osnova, hosts: []string{"tjournal.ru", "the.tj", "dtf.ru", "vc.ru"}},
}

// Classify maps a raw URL string to the platform owning its hostname.
// It never fails: malformed input falls through SafeParseURL and an
// unrecognized hostname reports ok=false.
func Classify(raw string) (Platform, *url.URL, bool) {
	u := SafeParseURL(raw)
	host := strings.ToLower(u.Hostname())

	for _, entry := range hostTable {
		if entry.rx != nil {
			if entry.rx.MatchString(host) {
				return entry.platform, u, true
			}
			continue
		}
		for _, h := range entry.hosts {
			if host == h {
				return entry.platform, u, true
			}
		}
	}

	return "", u, false
}
