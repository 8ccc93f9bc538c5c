package verifier

import "strings"

// Sets holds the static classification data: disposable mail domains,
// role-based local parts and consumer webmail domains. The sets are
// injected configuration so they can be refreshed without touching the
// probe logic; DefaultSets returns the embedded baseline.
type Sets struct {
	Disposable map[string]struct{}
	RoleBased  map[string]struct{}
	Free       map[string]struct{}
}

// DefaultSets builds the classification sets from the embedded lists.
func DefaultSets() Sets {
	return Sets{
		Disposable: SetFromList(strings.Split(disposableDomainList, "\n")),
		RoleBased:  SetFromList(strings.Split(roleBasedLocalParts, "\n")),
		Free:       SetFromList(strings.Split(freeProviderList, "\n")),
	}
}

// SetFromList normalizes a list of entries into a lookup set, skipping
// blanks and comment lines.
func SetFromList(entries []string) map[string]struct{} {
	set := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || strings.HasPrefix(e, "#") {
			continue
		}
		set[e] = struct{}{}
	}
	return set
}

func (s Sets) isDisposable(domain string) bool {
	_, ok := s.Disposable[strings.ToLower(domain)]
	return ok
}

func (s Sets) isRoleBased(localPart string) bool {
	_, ok := s.RoleBased[strings.ToLower(localPart)]
	return ok
}

func (s Sets) isFreeProvider(domain string) bool {
	_, ok := s.Free[strings.ToLower(domain)]
	return ok
}

const roleBasedLocalParts = `
abuse
accounts
admin
administrator
billing
careers
contact
dev
enquiries
feedback
finance
help
hello
hr
info
it
jobs
legal
mail
marketing
media
news
newsletter
no-reply
noreply
office
postmaster
press
privacy
root
sales
security
service
support
team
webmaster
`

const freeProviderList = `
gmail.com
yahoo.com
outlook.com
hotmail.com
aol.com
protonmail.com
proton.me
icloud.com
mail.com
yandex.com
yandex.ru
zoho.com
gmx.com
gmx.de
live.com
msn.com
me.com
fastmail.com
hey.com
tutanota.com
`

const disposableDomainList = `
0-mail.com
0815.ru
0clickemail.com
10minutemail.com
10minutemail.co.za
20minutemail.com
2prong.com
30minutemail.com
33mail.com
60minutemail.com
anonbox.net
anonymbox.com
antispam.de
binkmail.com
bobmail.info
bofthew.com
brefmail.com
bugmenot.com
chogmail.com
deadaddress.com
deadspam.com
despammed.com
devnullmail.com
discard.email
discardmail.com
dispostable.com
dodgit.com
dontsendmespam.de
dump-email.info
dumpyemail.com
e4ward.com
emailsensei.com
emailtemporario.com.br
explodemail.com
fake-mail.com
fakeinbox.com
fansworldwide.de
filzmail.com
get1mail.com
getairmail.com
getonemail.com
gishpuppy.com
guerrillamail.biz
guerrillamail.com
guerrillamail.de
guerrillamail.info
guerrillamail.net
guerrillamail.org
guerrillamailblock.com
harakirimail.com
hidemail.de
ieatspam.eu
incognitomail.com
jetable.com
jetable.net
jetable.org
junk1e.com
kasmail.com
killmail.com
klzlk.com
kurzepost.de
letthemeatspam.com
lifebyfood.com
lookugly.com
mail-temp.com
mail4trash.com
mailcatch.com
maildrop.cc
maileater.com
mailexpire.com
mailforspam.com
mailin8r.com
mailinater.com
mailinator.com
mailinator.net
mailinator.org
mailinator2.com
mailmetrash.com
mailmoat.com
mailnesia.com
mailnull.com
mailsac.com
mailshell.com
mailslite.com
mailtemp.info
mailzilla.com
meltmail.com
mintemail.com
monemail.fr.nf
mt2014.com
mycleaninbox.net
mytemp.email
mytempemail.com
mytrashmail.com
neverbox.com
no-spam.ws
nobulk.com
nospam4.us
nospamfor.us
notmailinator.com
nowmymail.com
objectmail.com
oneoffemail.com
onewaymail.com
oopi.org
otherinbox.com
pookmail.com
proxymail.eu
punkass.com
quickinbox.com
rcpt.at
recode.me
rejectmail.com
rmqkr.net
rtrtr.com
safe-mail.net
sharklasers.com
shieldedmail.com
shitmail.me
sneakemail.com
sofort-mail.de
sogetthis.com
spam.la
spam4.me
spamavert.com
spambob.net
spambog.com
spambox.us
spamcannon.com
spamcorptastic.com
spamday.com
spamex.com
spamfree24.org
spamgourmet.com
spamherelots.com
spamhole.com
spaml.com
spammotel.com
spamspot.com
spamthis.co.uk
suremail.info
teleworm.us
temp-mail.io
temp-mail.org
tempail.com
tempemail.net
tempinbox.com
tempmail2.com
tempmaildemo.com
tempmailer.com
tempomail.fr
temporaryinbox.com
thankyou2010.com
thisisnotmyrealemail.com
throwawayemailaddress.com
throwawaymail.com
tmailinator.com
tradermail.info
trash-mail.at
trash-mail.com
trash-mail.de
trash2009.com
trashdevil.com
trashmail.at
trashmail.com
trashmail.de
trashmail.me
trashmail.net
trashmail.org
trashymail.com
tyldd.com
veryrealemail.com
vubby.com
wegwerfadresse.de
wegwerfemail.de
wegwerfmail.de
wegwerfmail.net
wegwerfmail.org
wh4f.org
whyspam.me
willselfdestruct.com
wronghead.com
wuzup.net
xoxy.net
yep.it
yopmail.com
yopmail.fr
yopmail.net
zippymail.info
zoemail.org
`
