package bot

// User-facing texts. Kept in one place so swapping the language only
// touches this file.
const (
	msgWelcome = `• *Send me 1 photo* with a frontal face and you can:
    - Look younger
    - Look older
    - Look more like a man
    - Look more like a woman
• *Send me 2 or more photos at once*, one frontal face each, and you can:
    - Fuse the faces into a single person`

	msgUnknown = "Sorry, I only speak Klingon and a handful of commands"

	msgForbidden = "You are not worthy of wielding Excalibur. If you think this is a mistake, talk to Merlin"

	msgMenuSingle = "What do you want to do with this photo?"
	msgMenuAlbum  = "What do you want to do with these photos?"

	msgPhotoGoneSingle = "I no longer have that photo... please send it to me again 🙏"
	msgPhotoGoneAlbum  = "I no longer have those photos... please send them to me again 🙏"

	msgInFlight = "I'm already working on that exact request, hold on..."

	msgTransformError = "Something went wrong: %s"

	msgGenericError = "Something went wrong, please try again later"
)
