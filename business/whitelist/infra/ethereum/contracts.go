package ethereum

// AccessControllerABI covers the whitelist surface of the access controller.
const AccessControllerABI = `[
	{
		"inputs": [{"internalType": "address", "name": "account", "type": "address"}],
		"name": "isAllowed",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "freeSlotsCount",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "register",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

const (
	methodIsAllowed      = "isAllowed"
	methodFreeSlotsCount = "freeSlotsCount"
	methodRegister       = "register"
)

// gasHeadroomPercent is added on top of the node's gas estimate.
const gasHeadroomPercent = 10
