// SPDX-License-Identifier: MPL-2.0

package container

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/docker/docker/pkg/jsonmessage"
)

// DecodeBuildStream consumes a build response body. Stream messages are
// passed to onStream. It returns the image ID announced in the aux
// messages, which is empty when the daemon sent none.
func DecodeBuildStream(r io.Reader, onStream func(string)) (string, error) {
	dec := json.NewDecoder(r)
	var imageID string
	for {
		var msg jsonmessage.JSONMessage
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				return imageID, nil
			}
			return "", fmt.Errorf("decoding build stream: %w", err)
		}

		switch {
		case msg.Error != nil:
			return "", &BuildError{Code: msg.Error.Code, Message: msg.Error.Message}
		case msg.ErrorMessage != "":
			return "", &BuildError{Message: msg.ErrorMessage}
		}

		if msg.Aux != nil {
			var aux struct {
				ID string `json:"ID"`
			}
			if err := json.Unmarshal(*msg.Aux, &aux); err == nil && aux.ID != "" {
				imageID = aux.ID
			}
		}
		if msg.Stream != "" && onStream != nil {
			onStream(msg.Stream)
		}
	}
}
