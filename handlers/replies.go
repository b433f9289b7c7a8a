package handlers

import (
	"errors"
	"fmt"

	"wavebot/controller"
)

// UserMessage turns a controller error into the text shown to the member.
func UserMessage(err error) string {
	var wrongChannel *controller.WrongChannelError
	var remoteErr *controller.RemoteError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, controller.ErrNotInVoiceChannel):
		return "Please join a voice channel first before using this command."
	case errors.As(err, &wrongChannel):
		return fmt.Sprintf("You can only control the player from <#%s>, as it has already started there.", wrongChannel.HomeChannelID)
	case errors.Is(err, controller.ErrAlreadyActiveElsewhere):
		return "The player is already active in another voice channel."
	case errors.Is(err, controller.ErrNoActiveSession):
		return "Nothing is playing in this server. Start something with play first."
	case errors.Is(err, controller.ErrNoSearchResults):
		return "Could not find any tracks with that query. Please try again."
	case errors.Is(err, controller.ErrNothingPlaying):
		return "Nothing is playing right now."
	case errors.Is(err, controller.ErrInvalidFilter):
		return "Pitch, speed and rate must all be greater than zero."
	case errors.As(err, &remoteErr):
		if remoteErr.Op == "connect" {
			return "I was unable to join this voice channel. Please try again."
		}
		return "Something went wrong: " + remoteErr.Error()
	default:
		return "An error occurred while processing your command"
	}
}
